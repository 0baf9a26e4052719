// Package prep turns a raw contract artifact into something the analysis
// tool can compile.
//
// The chain runs leaf-first: IsProjectBlob detects project exports saved
// with a source extension, Extract unpacks them into a directory tree,
// ResolveRemaps binds foreign import aliases to extracted directories,
// MainFileSelector picks the file to analyze and VersionSelector infers the
// compiler version from pragmas and legacy syntax.
//
// Every function here is safe for concurrent use. Extract always creates a
// fresh destination directory, so concurrent callers never share a tree.
package prep
