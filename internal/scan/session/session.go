// Package session turns a stream of camera frames into a deduplicated
// stream of resolved products feeding the billing cart.
package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	billingDomain "shoppos/internal/billing/domain"
	catalogDomain "shoppos/internal/catalog/domain"
	catalogRepo "shoppos/internal/catalog/repository"
	"shoppos/internal/platform/logger"
	"shoppos/internal/scan/decoder"
)

var (
	ErrNoBarcodeFound = errors.New("no barcode found, retry")
	ErrNotRunning     = errors.New("scan session is not running")
)

// Status classifies the outcome of resolving one scanned symbol.
type Status string

const (
	// StatusAdded: product found, cart line appended.
	StatusAdded Status = "added"
	// StatusUnknown: no catalog row for this barcode; the symbol is handed
	// back as the seed for an add-product form. No cart line.
	StatusUnknown Status = "unknown"
	// StatusSuppressed: same symbol seen again inside the cooldown window.
	StatusSuppressed Status = "suppressed"
)

type Resolution struct {
	Status Status                  `json:"status"`
	Symbol string                  `json:"symbol"`
	Line   *billingDomain.CartLine `json:"line,omitempty"`
}

// CatalogLookup is the read slice of the catalog gateway the session uses.
type CatalogLookup interface {
	GetByBarcode(ctx context.Context, barcode string) (*catalogDomain.Product, error)
}

// LineSink is where resolved products go; the billing service implements it.
type LineSink interface {
	AddToCart(product catalogDomain.Product) billingDomain.CartLine
}

// FrameDecoder abstracts the barcode decoder for tests.
type FrameDecoder interface {
	Decode(img image.Image) ([]decoder.Detection, error)
	DecodeBytes(buf []byte) ([]decoder.Detection, error)
}

// Listener receives the outcomes of continuous-stream scans, which have no
// caller waiting on them. Discrete captures report synchronously instead.
type Listener interface {
	ScanResolved(res Resolution)
	LookupFailed(symbol string, err error)
}

type Config struct {
	// Cooldown is the minimum time between two emissions of the same
	// symbol. After it elapses the same item may be scanned again for
	// quantity > 1.
	Cooldown time.Duration
	// QueueSize bounds the frame channel. When the UI pushes frames faster
	// than they decode, new frames are dropped, not queued; a stale frame
	// is worth nothing.
	QueueSize int
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

const (
	defaultCooldown  = 1500 * time.Millisecond
	defaultQueueSize = 4
)

type Session struct {
	dec      FrameDecoder
	catalog  CatalogLookup
	cart     LineSink
	listener Listener
	cooldown time.Duration
	now      func() time.Time

	frames  chan image.Image
	stopped chan struct{}

	mu       sync.Mutex
	lastSeen map[string]time.Time
	running  bool
	dropped  uint64
}

func New(dec FrameDecoder, catalog CatalogLookup, cart LineSink, listener Listener, cfg Config) *Session {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		dec:      dec,
		catalog:  catalog,
		cart:     cart,
		listener: listener,
		cooldown: cfg.Cooldown,
		now:      cfg.Now,
		frames:   make(chan image.Image, cfg.QueueSize),
		stopped:  make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
}

// Start launches the frame worker. Frames are processed one at a time in
// arrival order, which keeps the cooldown bookkeeping deterministic.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.worker(ctx)
}

func (s *Session) worker(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			s.setRunning(false)
			return
		case frame, ok := <-s.frames:
			if !ok {
				s.setRunning(false)
				return
			}
			s.processFrame(ctx, frame)
		}
	}
}

func (s *Session) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// Stop closes the frame channel and waits for the worker to drain. No
// decode state needs to survive a stop.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.frames) // closed under the lock so SubmitFrame cannot race it
	s.mu.Unlock()
	<-s.stopped
}

// SubmitFrame hands one video frame to the worker without blocking the
// frame source. When the queue is full the frame is dropped.
func (s *Session) SubmitFrame(frame image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	select {
	case s.frames <- frame:
	default:
		s.dropped++
	}
	return nil
}

// DroppedFrames reports how many frames were discarded because the worker
// was behind. Useful as a health signal; a busy but healthy session stays
// near zero.
func (s *Session) DroppedFrames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Session) processFrame(ctx context.Context, frame image.Image) {
	detections, err := s.dec.Decode(frame)
	if err != nil {
		logger.Warn("scan worker: frame decode failed: %v", err)
		return
	}
	for _, det := range detections {
		res, err := s.Resolve(ctx, det.Symbol)
		if err != nil {
			if s.listener != nil {
				s.listener.LookupFailed(det.Symbol, err)
			}
			continue
		}
		if s.listener != nil {
			s.listener.ScanResolved(res)
		}
	}
}

// SubmitStill resolves a single still capture: decode once, take the first
// detection. No detection is reported as ErrNoBarcodeFound so the UI can
// tell "retry the photo" apart from real failures.
func (s *Session) SubmitStill(ctx context.Context, buf []byte) (Resolution, error) {
	detections, err := s.dec.DecodeBytes(buf)
	if err != nil {
		return Resolution{}, err
	}
	if len(detections) == 0 {
		return Resolution{}, ErrNoBarcodeFound
	}
	return s.Resolve(ctx, detections[0].Symbol)
}

// SubmitManualBarcode is the typed-in path. It shares the cooldown
// bookkeeping with camera scans so holding Enter does not double-bill.
func (s *Session) SubmitManualBarcode(ctx context.Context, symbol string) (Resolution, error) {
	return s.Resolve(ctx, symbol)
}

// Resolve emits at most one scan event for the symbol and routes it
// through the catalog into the cart.
//
// The cooldown map is keyed per symbol: two different barcodes scanned in
// quick succession are both honored.
func (s *Session) Resolve(ctx context.Context, symbol string) (Resolution, error) {
	now := s.now()

	s.mu.Lock()
	if last, ok := s.lastSeen[symbol]; ok && now.Sub(last) < s.cooldown {
		s.mu.Unlock()
		return Resolution{Status: StatusSuppressed, Symbol: symbol}, nil
	}
	s.lastSeen[symbol] = now
	s.mu.Unlock()

	product, err := s.catalog.GetByBarcode(ctx, symbol)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrProductNotFound) {
			return Resolution{Status: StatusUnknown, Symbol: symbol}, nil
		}
		// Store failure: undo the cooldown entry so an immediate rescan is
		// not swallowed, and leave the cart untouched.
		s.mu.Lock()
		delete(s.lastSeen, symbol)
		s.mu.Unlock()
		return Resolution{}, err
	}

	line := s.cart.AddToCart(*product)
	return Resolution{Status: StatusAdded, Symbol: symbol, Line: &line}, nil
}
