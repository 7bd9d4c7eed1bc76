package packet

import (
	"github.com/wiresock/sock/hooks"
	"github.com/wiresock/sock/internal/ioerr"
)

// inlineWriter sends the window inline[sent:Length].
func inlineWriter(p *Packet, fd int, h *hooks.Table, sent int) (int, error) {
	n, err := h.Write(fd, p.inline[sent:p.Length])
	if err != nil {
		if ioerr.IsTransient(err) {
			return 0, nil
		}
		return -1, err
	}
	return n, nil
}

// memoryWriter sends the window mem.data[sent:].
func memoryWriter(p *Packet, fd int, h *hooks.Table, sent int) (int, error) {
	n, err := h.Write(fd, p.mem.data[sent:])
	if err != nil {
		if ioerr.IsTransient(err) {
			return 0, nil
		}
		return -1, err
	}
	return n, nil
}
