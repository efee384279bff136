package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/ledtrack-go/log"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
	"github.com/mpapenbr/ledtrack-go/pkg/sink"
)

// sendTimeout bounds the time a slow subscriber may delay a delivery.
// Deliveries running into the timeout are skipped for that subscriber.
const sendTimeout = 50 * time.Millisecond

var ErrClosed = errors.New("fanout closed")

// Broadcaster distributes values of one type to multiple subscribers.
type Broadcaster[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
}

type broadcaster[T any] struct {
	name           string
	sessionKey     string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	numRcv         atomic.Int64
	numSnd         atomic.Int64
	numSkip        atomic.Int64
	numListener    atomic.Int64
}

func newBroadcaster[T any](sessionKey, name string, source <-chan T) Broadcaster[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcaster[T]{
		sessionKey:     sessionKey,
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
	}
	b.setupMetrics()
	go b.serve()
	return b
}

func (b *broadcaster[T]) Subscribe() <-chan T {
	ch := make(chan T)
	select {
	case b.addListener <- ch:
	case <-b.ctx.Done():
		close(ch)
	}
	return ch
}

func (b *broadcaster[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.ctx.Done():
	}
}

func (b *broadcaster[T]) Close() {
	log.Info("Closing broadcaster",
		log.String("name", b.name),
		log.Int64("rcv", b.numRcv.Load()),
		log.Int64("snd", b.numSnd.Load()),
		log.Int64("skip", b.numSkip.Load()))
	b.cancel()
}

func (b *broadcaster[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter(fmt.Sprintf("ledtrack.fanout.%s", b.name))
	register := func(metricName, desc string, valueProvider func() int64) {
		if _, err := meter.Int64ObservableGauge(
			metricName,
			metric.WithDescription(desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(valueProvider(),
					metric.WithAttributes(
						attribute.String("name", b.name),
						attribute.String("session", b.sessionKey),
					),
				)
				return nil
			})); err != nil {
			log.Error("failed to register metric",
				log.String("metric", metricName),
				log.ErrorField(err))
		}
	}
	register("ledtrack.fanout.rcv", "Number of received messages", b.numRcv.Load)
	register("ledtrack.fanout.snd", "Number of sent messages", b.numSnd.Load)
	register("ledtrack.fanout.skip", "Number of skipped messages", b.numSkip.Load)
	register("ledtrack.fanout.listener", "Number of listeners", b.numListener.Load)
}

func (b *broadcaster[T]) serve() {
	defer func() {
		log.Debug("Closing listeners", log.String("name", b.name))
		for _, listener := range b.listeners {
			close(listener)
		}
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
			b.numListener.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
					break
				}
			}
			b.numListener.Store(int64(len(b.listeners)))
		case msg := <-b.source:
			b.numRcv.Add(1)
			for _, listener := range b.listeners {
				select {
				case listener <- msg:
					b.numSnd.Add(1)
				case <-time.After(sendTimeout):
					b.numSkip.Add(1)
				}
			}
		}
	}
}

// Fanout implements sink.Sink and distributes frames and state changes
// to any number of subscribers (stream handlers, bridges, ...).
type Fanout struct {
	ctx         context.Context
	cancel      context.CancelFunc
	sessionKey  string
	frameSource chan *model.Frame
	stateSource chan *model.PlaybackState
	frames      Broadcaster[*model.Frame]
	states      Broadcaster[*model.PlaybackState]
}

var _ sink.Sink = (*Fanout)(nil)

type Option func(*Fanout)

// WithSessionKey tags the telemetry of this fanout with the session key.
func WithSessionKey(key string) Option {
	return func(f *Fanout) { f.sessionKey = key }
}

func New(opts ...Option) *Fanout {
	ctx, cancel := context.WithCancel(context.Background())
	ret := &Fanout{
		ctx:         ctx,
		cancel:      cancel,
		frameSource: make(chan *model.Frame),
		stateSource: make(chan *model.PlaybackState),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.frames = newBroadcaster(ret.sessionKey, "frames", ret.frameSource)
	ret.states = newBroadcaster(ret.sessionKey, "states", ret.stateSource)
	return ret
}

func (f *Fanout) SinkFrame(frame *model.Frame) error {
	select {
	case f.frameSource <- frame:
		return nil
	case <-f.ctx.Done():
		return ErrClosed
	}
}

func (f *Fanout) SinkState(state *model.PlaybackState) error {
	select {
	case f.stateSource <- state:
		return nil
	case <-f.ctx.Done():
		return ErrClosed
	}
}

func (f *Fanout) Close() error {
	f.frames.Close()
	f.states.Close()
	f.cancel()
	return nil
}

func (f *Fanout) SubscribeFrames() <-chan *model.Frame {
	return f.frames.Subscribe()
}

func (f *Fanout) CancelFrames(ch <-chan *model.Frame) {
	f.frames.CancelSubscription(ch)
}

func (f *Fanout) SubscribeStates() <-chan *model.PlaybackState {
	return f.states.Subscribe()
}

func (f *Fanout) CancelStates(ch <-chan *model.PlaybackState) {
	f.states.CancelSubscription(ch)
}
