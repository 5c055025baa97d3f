package spectra

import (
	"context"
	"sync"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

// scriptedTransport answers each SendWait with the next scripted reply,
// ignoring the accept filter so tests can inject out of turn frames.
type scriptedTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	replies []scriptedReply
	// respond, when set, is used once the script runs out.
	respond func(frame []byte) ([]byte, error)
}

type scriptedReply struct {
	frame []byte
	err   error
}

func (s *scriptedTransport) push(frame []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, scriptedReply{frame: frame, err: err})
}

func (s *scriptedTransport) SendWait(ctx context.Context, frame []byte, _ func([]byte) bool) ([]byte, error) {
	s.mu.Lock()
	s.sent = append(s.sent, append([]byte(nil), frame...))
	if len(s.replies) > 0 {
		r := s.replies[0]
		s.replies = s.replies[1:]
		s.mu.Unlock()
		return r.frame, r.err
	}
	respond := s.respond
	s.mu.Unlock()
	if respond != nil {
		return respond(frame)
	}
	return nil, paradox.ErrTimeout
}

func (s *scriptedTransport) Send(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, append([]byte(nil), frame...))
	return nil
}

func (s *scriptedTransport) requests() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}
