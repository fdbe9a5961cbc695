// Package remote exposes the loaded core over two network front ends: a
// newline-delimited batched JSON protocol on TCP and a plaintext command
// protocol on UDP. Both translate wire requests into command channel
// submissions, so every touch of plugin memory happens on the owning
// thread.
package remote
