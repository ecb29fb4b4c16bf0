// Package safepath proves that filesystem paths derived from untrusted
// archive entries stay inside an output root.
//
// Containment is checked against real paths: every existing ancestor is
// resolved through its symlinks and compared with the real path of the
// output root before anything beneath it is created. Lexical validation
// alone is not enough, since earlier entries of the same archive may have
// planted symlinks.
package safepath
