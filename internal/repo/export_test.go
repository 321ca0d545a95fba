package repo

// SetRename replaces the rename step of a FileStore write.
func SetRename[T any](s *FileStore[T], fn func(oldpath, newpath string) error) {
	s.rename = fn
}
