package peer

import (
	"log"
	"time"

	"lansocial/internal/wire"
)

// receiveLoop pulls datagrams off the transport, decodes them and hands them
// to the router. A datagram that fails to decode is logged and dropped; it
// never takes the peer down.
func (a *App) receiveLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		default:
		}
		dgram, ok := a.Transport.Receive(500 * time.Millisecond)
		if !ok {
			continue
		}
		msg, err := wire.Decode(dgram.Data)
		if err != nil {
			log.Printf("drop %d byte datagram from %s: %v", len(dgram.Data), dgram.Addr, err)
			continue
		}
		a.Router.Dispatch(msg, dgram.Addr.IP.String(), dgram.Addr.Port)
	}
}
