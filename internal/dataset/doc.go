// Package dataset manages datasets, their role based permissions and their
// serialized representation.
//
// # Permissions
//
// Each dataset has two independent permission kinds. Manage allows changing
// the dataset and reading its permissions, access allows reading it. A
// permission is granted to a role. Administrators pass every check.
//
// Datasets without grants of a kind fall back to different rules: without
// manage grants only administrators may manage, without access grants
// everyone may access, anonymous callers included.
//
// # Serialization
//
// A Serializer turns a dataset into a map ready for encoding/json. Keys are
// picked individually or through named views. Fields a caller must not see
// are dropped from batch output and reported as *SkipAttributeError when
// requested on their own.
package dataset
