package transport

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

const incomingQueueSize = 128

// Datagram is one received UDP payload together with its source address.
type Datagram struct {
	Data []byte
	Addr *net.UDPAddr
}

// UDP owns the peer's sockets: a unicast socket bound to an ephemeral port for
// peer traffic and, when the bind succeeds, a second socket on the well-known
// discovery port for broadcast announcements.
type UDP struct {
	conn          *net.UDPConn
	disc          *net.UDPConn
	discoveryPort int
	broadcastIP   net.IP

	Incoming chan Datagram
	quit     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New binds the unicast socket and attempts to bind the discovery socket.
// A peer that loses the discovery-port race still works: it announces via
// broadcast from the unicast socket and hears replies addressed to it.
func New(discoveryPort int, broadcastAddr string) (*UDP, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("bind unicast socket: %w", err)
	}

	bcast := net.ParseIP(broadcastAddr)
	if bcast == nil {
		_ = conn.Close()
		return nil, fmt.Errorf("invalid broadcast address %q", broadcastAddr)
	}

	tr := &UDP{
		conn:          conn,
		discoveryPort: discoveryPort,
		broadcastIP:   bcast,
		Incoming:      make(chan Datagram, incomingQueueSize),
		quit:          make(chan struct{}),
	}

	disc, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: discoveryPort})
	if err != nil {
		log.Printf("discovery port %d unavailable (%v), using unicast socket only", discoveryPort, err)
	} else {
		tr.disc = disc
	}
	return tr, nil
}

// Start launches one read loop per bound socket.
func (t *UDP) Start() {
	t.wg.Add(1)
	go t.readLoop(t.conn, "unicast")
	if t.disc != nil {
		t.wg.Add(1)
		go t.readLoop(t.disc, "discovery")
	}
}

func (t *UDP) readLoop(conn *net.UDPConn, label string) {
	defer t.wg.Done()
	buf := make([]byte, 64*1024)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-t.quit:
				return
			default:
			}
			// Spurious resets on broadcast sockets must not kill the loop.
			log.Printf("%s read error: %v", label, err)
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case t.Incoming <- Datagram{Data: data, Addr: addr}:
		case <-t.quit:
			return
		}
	}
}

// Receive waits up to timeout for the next datagram. The second return is
// false on timeout or after Close, so housekeeping in the caller's loop is
// never starved.
func (t *UDP) Receive(timeout time.Duration) (Datagram, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case dg, ok := <-t.Incoming:
		return dg, ok
	case <-timer.C:
		return Datagram{}, false
	}
}

// SendUnicast writes a payload to one peer endpoint.
func (t *UDP) SendUnicast(data []byte, ip string, port int) error {
	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}
	if addr.IP == nil {
		return fmt.Errorf("invalid peer address %q", ip)
	}
	if _, err := t.conn.WriteToUDP(data, addr); err != nil {
		return fmt.Errorf("send to %s:%d: %w", ip, port, err)
	}
	return nil
}

// SendBroadcast announces a payload on the discovery port. The loopback copy
// reaches peers on the same host, where many stacks do not deliver a
// broadcast back to its source.
func (t *UDP) SendBroadcast(data []byte) error {
	_, err := t.conn.WriteToUDP(data, &net.UDPAddr{IP: t.broadcastIP, Port: t.discoveryPort})
	if _, lerr := t.conn.WriteToUDP(data, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: t.discoveryPort}); err == nil {
		err = lerr
	}
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	return nil
}

// Port returns the ephemeral unicast port peers should reply to.
func (t *UDP) Port() int {
	return t.conn.LocalAddr().(*net.UDPAddr).Port
}

// HasDiscoverySocket reports whether the well-known port bind succeeded.
func (t *UDP) HasDiscoverySocket() bool {
	return t.disc != nil
}

// Close shuts both sockets, unblocking the read loops, then closes Incoming.
func (t *UDP) Close() {
	t.stopOnce.Do(func() {
		close(t.quit)
		_ = t.conn.Close()
		if t.disc != nil {
			_ = t.disc.Close()
		}
		t.wg.Wait()
		close(t.Incoming)
	})
}

// LocalIP discovers the outbound interface address. The dial never sends a
// packet; it only forces route selection.
func LocalIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
