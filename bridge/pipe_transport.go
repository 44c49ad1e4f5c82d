package bridge

import "io"

// pipeTransport backs Transport with in-memory io.Pipe ends. It is
// used by tests to exercise the wire protocol without real FIFOs.
type pipeTransport struct {
	r io.ReadCloser
	w io.WriteCloser
}

// NewPipeTransportPair returns two connected Transports, as if dialed
// across a FIFO pair: writes on one side arrive as reads on the
// other.
func NewPipeTransportPair() (a, b Transport) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	a = &pipeTransport{r: r1, w: w2}
	b = &pipeTransport{r: r2, w: w1}
	return a, b
}

func (p *pipeTransport) ReadFrame() ([]byte, error) {
	return readFrame(p.r)
}

func (p *pipeTransport) WriteFrame(b []byte) error {
	return writeFrame(p.w, b)
}

func (p *pipeTransport) Close() error {
	rerr := p.r.Close()
	werr := p.w.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
