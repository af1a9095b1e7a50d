package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const defaultSendTimeout = 10 * time.Second

// ErrDispatcherClosed is returned by Send after Close.
var ErrDispatcherClosed = errors.New("notify: dispatcher closed")

type deliver struct {
	msg Message
}

type delivered struct {
	err error
}

// mailerActor owns the provider connection and sends one message at a time.
type mailerActor struct {
	mailer  Mailer
	timeout time.Duration
	logger  *zap.Logger
}

func (a *mailerActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *deliver:
		sendCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.mailer.Send(sendCtx, msg.msg)
		cancel()
		if err != nil {
			a.logger.Warn("Email delivery failed",
				zap.String("to", msg.msg.To),
				zap.String("subject", msg.msg.Subject),
				zap.Error(err))
		} else {
			a.logger.Debug("Email delivered",
				zap.String("to", msg.msg.To),
				zap.String("subject", msg.msg.Subject))
		}
		ctx.Respond(&delivered{err: err})

	case *actor.Started:
		a.logger.Info("Mailer actor started")

	case *actor.Stopped:
		a.logger.Info("Mailer actor stopped")
	}
}

// Dispatcher serializes email delivery through a mailer actor.
type Dispatcher struct {
	system  *actor.ActorSystem
	pid     *actor.PID
	timeout time.Duration
	closed  chan struct{}
}

// NewDispatcher spawns the mailer actor. timeout bounds each send.
func NewDispatcher(mailer Mailer, timeout time.Duration, logger *zap.Logger) (*Dispatcher, error) {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return &mailerActor{mailer: mailer, timeout: timeout, logger: logger.Named("mailer-actor")}
	})
	pid, err := system.Root.SpawnNamed(props, "mailer")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn mailer actor: %w", err)
	}

	return &Dispatcher{
		system:  system,
		pid:     pid,
		timeout: timeout,
		closed:  make(chan struct{}),
	}, nil
}

// Send queues msg and waits for the provider's answer.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	select {
	case <-d.closed:
		return ErrDispatcherClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Leave room for messages already queued ahead of this one.
	result, err := d.system.Root.RequestFuture(d.pid, &deliver{msg: msg}, 2*d.timeout).Result()
	if err != nil {
		return fmt.Errorf("failed to dispatch email: %w", err)
	}
	reply, ok := result.(*delivered)
	if !ok {
		return fmt.Errorf("unexpected mailer reply %T", result)
	}
	return reply.err
}

// Close drains the mailbox and stops the actor system.
func (d *Dispatcher) Close() {
	select {
	case <-d.closed:
		return
	default:
		close(d.closed)
	}
	_ = d.system.Root.PoisonFuture(d.pid).Wait()
	d.system.Shutdown()
}
