// Package closer provides utility to close readers or writers chain in LIFO order.
package closer

// Closers type is a list of close callbacks, which are invoked in LIFO order.
//
// A writer Close method may release resources, flush internal buffers or
// write a stream tail, so the chain must be closed in the correct order:
//
//	WRITE        >>> RowWriter -> GzipWriter -> Buffer -> os.File
//	OPEN               4      <-     3       <-   2    <-    1       (opening the file is the FIRST step)
//	CLOSE/FLUSH        1      ->     2       ->   3    ->    4       (closing the file is the LAST step)
//
// A reader Close method only releases resources, the stream end is detected
// by io.EOF, so readers may be closed in any order and the same LIFO order is used.
type Closers []func() error

func (v *Closers) Append(closers ...func() error) *Closers {
	*v = append(*v, closers...)
	return v
}

func (v *Closers) Close() error {
	if v != nil {
		for i := len(*v) - 1; i >= 0; i-- {
			if err := (*v)[i](); err != nil {
				return err
			}
		}
	}
	return nil
}
