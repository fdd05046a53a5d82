// Package binary fetches package files from the remote file host and places
// them into the binary directory.
//
// A package is a single executable file addressed by name:
//
//	GET {file_host}/{name}
//
// Downloader streams a 200 response into a temporary file created in the
// destination directory; every other status is a *StatusError and leaves
// nothing behind. Manager then moves the file into place, marks it
// executable, and keeps a one-file backup so a failed install or update can
// be undone.
package binary
