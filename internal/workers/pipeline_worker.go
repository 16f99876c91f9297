package workers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/debanirmalya/hirebuddy/internal/queue"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PipelineWorkerPool consumes pipeline tasks from a Redis stream through a
// consumer group. Every message is acknowledged once handled, successful or
// not, so a task runs at most once. Messages left pending by a consumer that
// died are claimed after ClaimIdle and abandoned instead of run again.
type PipelineWorkerPool struct {
	Redis      *redis.Client
	Handler    queue.Handler
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
	TaskTimeout    time.Duration
	ClaimIdle      time.Duration
	ClaimInterval  time.Duration

	wg sync.WaitGroup
}

func (p *PipelineWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Handler == nil {
		return errors.New("PipelineWorkerPool missing dependency: Redis/Handler must be set")
	}
	if p.Stream == "" {
		p.Stream = queue.DefaultStream
	}
	if p.Group == "" {
		p.Group = queue.DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.TaskTimeout <= 0 {
		p.TaskTimeout = 5 * time.Minute
	}
	if p.ClaimIdle <= 0 {
		p.ClaimIdle = p.TaskTimeout + time.Minute
	}
	if p.ClaimInterval <= 0 {
		p.ClaimInterval = time.Minute
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go p.runConsumer(ctx, consumer)
	}
	p.wg.Add(1)
	go p.reclaim(ctx)
	p.Logger.WithFields(logrus.Fields{
		"stream":  p.Stream,
		"group":   p.Group,
		"workers": p.NumWorkers,
	}).Info("pipeline workers started")
	return nil
}

// Wait blocks until every consumer has returned.
func (p *PipelineWorkerPool) Wait() { p.wg.Wait() }

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func (p *PipelineWorkerPool) runConsumer(ctx context.Context, consumer string) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, consumer, msg)
				if err := p.Redis.XAck(context.WithoutCancel(ctx), p.Stream, p.Group, msg.ID).Err(); err != nil {
					p.Logger.WithError(err).WithField("redis_id", msg.ID).Warn("stream ack failed")
				}
			}
		}
	}
}

func (p *PipelineWorkerPool) handleMsg(ctx context.Context, consumer string, msg redis.XMessage) {
	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"worker":   consumer,
	})

	t, err := queue.TaskFromValues(msg.Values)
	if err != nil {
		log.WithError(err).Warn("dropping malformed task")
		return
	}
	log = log.WithFields(logrus.Fields{
		"task":         t.Kind,
		"candidate_id": t.CandidateID,
	})

	ctx, cancel := context.WithTimeout(ctx, p.TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("task panicked")
		}
	}()

	start := time.Now()
	if err := p.Handler.Handle(ctx, t); err != nil {
		log.WithError(err).Error("task failed")
		return
	}
	log.WithField("latency_ms", time.Since(start).Milliseconds()).Info("task done")
}

func (p *PipelineWorkerPool) reclaim(ctx context.Context) {
	defer p.wg.Done()
	tick := time.NewTicker(p.ClaimInterval)
	defer tick.Stop()
	for {
		if n := p.reclaimOnce(ctx); n > 0 {
			p.Logger.WithField("count", n).Warn("abandoned stale stream messages")
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// reclaimOnce claims every message idle for at least ClaimIdle, abandons
// its task and acknowledges it.
func (p *PipelineWorkerPool) reclaimOnce(ctx context.Context) int {
	consumer := p.ConsumerPrefix + "-reclaim"
	start := "0-0"
	n := 0
	for {
		msgs, next, err := p.Redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   p.Stream,
			Group:    p.Group,
			MinIdle:  p.ClaimIdle,
			Start:    start,
			Count:    50,
			Consumer: consumer,
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				p.Logger.WithError(err).Warn("stream reclaim failed")
			}
			return n
		}

		for _, msg := range msgs {
			p.abandonMsg(ctx, msg)
			if err := p.Redis.XAck(context.WithoutCancel(ctx), p.Stream, p.Group, msg.ID).Err(); err != nil {
				p.Logger.WithError(err).WithField("redis_id", msg.ID).Warn("stream ack failed")
			}
			n++
		}
		if next == "0-0" || next == "" {
			return n
		}
		start = next
	}
}

func (p *PipelineWorkerPool) abandonMsg(ctx context.Context, msg redis.XMessage) {
	log := p.Logger.WithField("redis_id", msg.ID)

	t, err := queue.TaskFromValues(msg.Values)
	if err != nil {
		log.WithError(err).Warn("dropping malformed task")
		return
	}
	log = log.WithFields(logrus.Fields{
		"task":         t.Kind,
		"candidate_id": t.CandidateID,
	})

	a, ok := p.Handler.(queue.Abandoner)
	if !ok {
		log.Warn("stale task dropped")
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := a.Abandon(actx, t); err != nil {
		log.WithError(err).Error("failed to abandon stale task")
		return
	}
	log.Warn("stale task abandoned")
}
