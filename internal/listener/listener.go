// Package listener selects the socket the HTTP server listens on: a socket
// inherited from the supervisor when one is offered, a fresh TCP bind otherwise.
package listener

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/coreos/go-systemd/v22/activation"
)

// ErrAcquisition is returned when no usable listener could be produced.
var ErrAcquisition = errors.New("listener acquisition failed")

// Kind identifies where a listener came from.
type Kind string

const (
	InheritedUnix Kind = "inherited-unix"
	InheritedTCP  Kind = "inherited-tcp"
	FreshTCP      Kind = "fresh-tcp"
)

// Acquired is the selected listener and its origin.
type Acquired struct {
	net.Listener
	Kind Kind
}

// Acquirer resolves the listening socket. The zero value is not usable; use New.
type Acquirer struct {
	files  func() []*os.File
	listen func(network, address string) (net.Listener, error)
	logger *slog.Logger
}

// Option customises an Acquirer.
type Option func(*Acquirer)

// WithFiles replaces the source of inherited descriptors.
func WithFiles(files func() []*os.File) Option {
	return func(a *Acquirer) { a.files = files }
}

// WithListen replaces the function used for a fresh bind.
func WithListen(listen func(network, address string) (net.Listener, error)) Option {
	return func(a *Acquirer) { a.listen = listen }
}

// New creates an Acquirer reading inherited sockets from the systemd
// LISTEN_FDS protocol.
func New(logger *slog.Logger, opts ...Option) *Acquirer {
	a := &Acquirer{
		files:  func() []*os.File { return activation.Files(true) },
		listen: net.Listen,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire returns exactly one non-blocking listener. An inherited unix socket
// wins over an inherited TCP socket; a fresh TCP bind on address is used only
// when nothing was inherited. Every failure wraps ErrAcquisition.
func (a *Acquirer) Acquire(address string) (*Acquired, error) {
	inherited, err := a.inherited()
	if err != nil {
		return nil, err
	}
	if inherited != nil {
		a.logger.Info("using inherited listener", "kind", inherited.Kind, "addr", inherited.Addr().String())
		return inherited, nil
	}

	ln, err := a.listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: bind %s: %w", ErrAcquisition, address, err)
	}
	if err := setNonblock(ln); err != nil {
		ln.Close()
		return nil, fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	a.logger.Info("bound fresh listener", "addr", ln.Addr().String())
	return &Acquired{Listener: ln, Kind: FreshTCP}, nil
}

func (a *Acquirer) inherited() (*Acquired, error) {
	files := a.files()
	if len(files) == 0 {
		return nil, nil
	}

	listeners := make([]net.Listener, 0, len(files))
	closeAll := func() {
		for _, ln := range listeners {
			ln.Close()
		}
	}
	for _, f := range files {
		if err := setNonblock(f); err != nil {
			f.Close()
			closeAll()
			return nil, fmt.Errorf("%w: descriptor %s: %w", ErrAcquisition, f.Name(), err)
		}
		ln, err := net.FileListener(f)
		f.Close()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("%w: descriptor %s is not a listening socket: %w", ErrAcquisition, f.Name(), err)
		}
		listeners = append(listeners, ln)
	}

	var chosen *Acquired
	for _, ln := range listeners {
		if _, ok := ln.(*net.UnixListener); ok {
			chosen = &Acquired{Listener: ln, Kind: InheritedUnix}
			break
		}
	}
	if chosen == nil {
		for _, ln := range listeners {
			if _, ok := ln.(*net.TCPListener); ok {
				chosen = &Acquired{Listener: ln, Kind: InheritedTCP}
				break
			}
		}
	}
	if chosen == nil {
		closeAll()
		return nil, fmt.Errorf("%w: %d inherited descriptors, none is a unix or tcp listener", ErrAcquisition, len(files))
	}

	for _, ln := range listeners {
		if ln != chosen.Listener {
			ln.Close()
		}
	}
	return chosen, nil
}
