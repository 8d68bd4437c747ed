package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/gorilla/websocket"
	session "github.com/merxus/go-session"
)

// Direction orders snapshot documents by a field.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Query scopes a subscription to a collection path with optional
// server-side ordering and filtering.
type Query struct {
	// Path is the tenant-scoped collection, e.g. "agents/{agentID}/leads".
	Path      string
	OrderBy   string
	Direction Direction
	// Where holds equality filters applied server side.
	Where map[string]any
	Limit int
}

// Document is one entry of a snapshot.
type Document struct {
	ID        string           `json:"id"`
	Data      json.RawMessage  `json:"data"`
	UpdatedAt session.FlexTime `json:"updatedAt"`
}

// Snapshot is the full ordered state of the subscribed collection at a
// point in time. The gateway sends whole snapshots, not deltas.
type Snapshot struct {
	Path      string           `json:"path"`
	Documents []Document       `json:"documents"`
	SentAt    session.FlexTime `json:"sentAt"`
}

type subscribeFrame struct {
	Action    string         `json:"action"`
	Path      string         `json:"path"`
	OrderBy   string         `json:"orderBy,omitempty"`
	Direction string         `json:"direction,omitempty"`
	Where     map[string]any `json:"where,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// Subscriber dials the realtime gateway and opens snapshot streams.
type Subscriber struct {
	baseURL string
	tokens  session.TokenSource
	dialer  *websocket.Dialer
	logger  session.Logger
}

// NewSubscriber builds a Subscriber against the gateway's websocket
// endpoint, e.g. "wss://realtime.example.com".
func NewSubscriber(baseURL string, tokens session.TokenSource) *Subscriber {
	return &Subscriber{
		baseURL: baseURL,
		tokens:  tokens,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
		logger: session.NewDefaultLogger(),
	}
}

func (s *Subscriber) WithLogger(logger session.Logger) *Subscriber {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithDialer overrides the websocket dialer (useful for tests).
func (s *Subscriber) WithDialer(dialer *websocket.Dialer) *Subscriber {
	if dialer != nil {
		s.dialer = dialer
	}
	return s
}

// Stream is one live subscription. Snapshots() yields until the
// context is cancelled or the connection drops, then closes; Err()
// reports the terminal error, nil on clean shutdown.
type Stream struct {
	snapshots chan Snapshot

	mu  sync.Mutex
	err error
}

func (st *Stream) Snapshots() <-chan Snapshot {
	return st.snapshots
}

func (st *Stream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

func (st *Stream) fail(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.err == nil {
		st.err = err
	}
}

// Subscribe opens a stream for the query. The stream lives until ctx
// is cancelled; the caller owns reconnecting with a fresh Subscribe.
func (s *Subscriber) Subscribe(ctx context.Context, q Query) (*Stream, error) {
	if q.Path == "" {
		return nil, goerrors.New("subscription path is required", goerrors.CategoryBadInput)
	}

	token, err := s.tokens.IDToken(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "no session token for subscription").
			WithCode(goerrors.CodeUnauthorized)
	}

	endpoint, err := url.JoinPath(s.baseURL, "v1", "subscribe")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "invalid realtime endpoint")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := s.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to dial realtime gateway").
			WithMetadata(map[string]any{"path": q.Path})
	}

	frame := subscribeFrame{
		Action:    "subscribe",
		Path:      q.Path,
		OrderBy:   q.OrderBy,
		Direction: string(q.Direction),
		Where:     q.Where,
		Limit:     q.Limit,
	}
	if err := conn.WriteJSON(frame); err != nil {
		conn.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send subscribe frame").
			WithMetadata(map[string]any{"path": q.Path})
	}

	stream := &Stream{snapshots: make(chan Snapshot)}

	// Reader goroutine owns the connection. Cancellation closes the
	// socket, which unblocks the pending ReadJSON; the reader closing
	// done releases the watcher and the socket when the server ends the
	// stream first.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	go func() {
		defer close(stream.snapshots)
		defer close(done)
		for {
			var snap Snapshot
			if err := conn.ReadJSON(&snap); err != nil {
				if ctx.Err() != nil {
					return
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return
				}
				stream.fail(goerrors.Wrap(err, goerrors.CategoryOperation, "realtime stream broken").
					WithMetadata(map[string]any{"path": q.Path}))
				return
			}

			s.logger.Debug("realtime snapshot path=%s docs=%d", snap.Path, len(snap.Documents))

			select {
			case stream.snapshots <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()

	return stream, nil
}
