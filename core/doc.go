// Package core loads libretro plugin libraries, drives their frame loop
// and exposes their memory through named domains. A plugin is live only
// inside the body passed to Load; all calls into it are confined to the
// loading thread.
package core
