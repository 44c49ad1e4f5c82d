//go:build unix

package bridge

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fifoMode is the permission mode named pipes are created with, per
// §6 of the wire format.
const fifoMode = 0o644

// fifoTransport backs Transport with a pair of named pipes: one
// parent-to-child ("<id>c"), one child-to-parent ("<id>p").
type fifoTransport struct {
	r *os.File
	w *os.File
}

// MakeFIFOPair creates the two named pipes for id if they do not
// already exist, using unix.Mkfifo rather than shelling out to
// mkfifo(1).
func MakeFIFOPair(id string) error {
	for _, suffix := range []string{"p", "c"} {
		path := id + suffix
		if err := unix.Mkfifo(path, fifoMode); err != nil && !os.IsExist(err) {
			return fmt.Errorf("bridge: mkfifo %s: %w", path, err)
		}
	}
	return nil
}

// RemoveFIFOPair removes the named pipes for id.
func RemoveFIFOPair(id string) {
	os.Remove(id + "p")
	os.Remove(id + "c")
}

// DialParent opens the parent side of the FIFO pair: it writes to
// "<id>c" and reads from "<id>p". Both opens block until the peer has
// the complementary end open, per the blocking semantics of a named
// pipe.
func DialParent(id string) (Transport, error) {
	w, err := os.OpenFile(id+"c", os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("bridge: open %sc for write: %w", id, err)
	}
	r, err := os.OpenFile(id+"p", os.O_RDONLY, 0)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("bridge: open %sp for read: %w", id, err)
	}
	return &fifoTransport{r: r, w: w}, nil
}

// DialChild opens the child side of the FIFO pair: it reads from
// "<id>c" and writes to "<id>p".
func DialChild(id string) (Transport, error) {
	r, err := os.OpenFile(id+"c", os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("bridge: open %sc for read: %w", id, err)
	}
	w, err := os.OpenFile(id+"p", os.O_WRONLY, 0)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("bridge: open %sp for write: %w", id, err)
	}
	return &fifoTransport{r: r, w: w}, nil
}

func (f *fifoTransport) ReadFrame() ([]byte, error) {
	return readFrame(f.r)
}

func (f *fifoTransport) WriteFrame(b []byte) error {
	return writeFrame(f.w, b)
}

func (f *fifoTransport) Close() error {
	rerr := f.r.Close()
	werr := f.w.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
