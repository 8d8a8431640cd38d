package service

import (
	"context"
	"sync"
	"time"

	"urgency-engine/internal/domain"
)

type fakeScoreSink struct {
	mu        sync.Mutex
	responded []RespondedEvent
	expired   []ExpiredEvent
}

func (f *fakeScoreSink) HandleResponded(event RespondedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responded = append(f.responded, event)
}

func (f *fakeScoreSink) HandleExpired(event ExpiredEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, event)
}

func (f *fakeScoreSink) respondedEvents() []RespondedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RespondedEvent(nil), f.responded...)
}

func (f *fakeScoreSink) expiredEvents() []ExpiredEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ExpiredEvent(nil), f.expired...)
}

type fakeArchive struct {
	mu              sync.Mutex
	resolutions     []domain.Notification
	snapshotBatches int
	recordErr       error
}

func (f *fakeArchive) RecordResolution(ctx context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.resolutions = append(f.resolutions, *n.Clone())
	return nil
}

func (f *fakeArchive) RecordScoreSnapshot(ctx context.Context, scores []domain.UserScore, takenAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.snapshotBatches++
	return nil
}

func (f *fakeArchive) resolutionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resolutions)
}

type fakeDeliverySink struct {
	mu        sync.Mutex
	delivered []domain.Notification
	deliverFn func(ctx context.Context, n domain.Notification) error
}

func (f *fakeDeliverySink) Deliver(ctx context.Context, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deliverFn != nil {
		return f.deliverFn(ctx, n)
	}
	f.delivered = append(f.delivered, n)
	return nil
}

func (f *fakeDeliverySink) deliveredNotifications() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notification(nil), f.delivered...)
}

type fakeRateLimiter struct {
	mu     sync.Mutex
	scopes []string
	waitFn func(ctx context.Context, scope string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, scope string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, scope)
	if f.waitFn != nil {
		return f.waitFn(ctx, scope)
	}
	return nil
}

func (f *fakeRateLimiter) waitScopes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scopes...)
}
