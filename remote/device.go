package remote

// Device is what the wire protocols need from the emulation runtime.
// All methods are invoked on the owning thread through a command channel
// handle; implementations need not be safe for concurrent use.
type Device interface {
	ReadDomain(domain string, addr uint, size int) ([]byte, error)
	WriteDomain(domain string, addr uint, data []byte) (int, error)
	ROMHash() string
	ROMName() string
	SystemID() string
}

// domainSystemBus matches the runtime's live memory domain; WRITE and
// the datagram memory commands always target it.
const domainSystemBus = "System Bus"
