// Package platform isolates operating-system specific behavior used during
// extraction: the process umask, no-follow file creation, and whether
// symbolic links can be created.
package platform
