package usecase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/logger"
	"syncsns/infrastructure/pubsub"
	"syncsns/infrastructure/realtime"
	"syncsns/infrastructure/servicebus"
)

// ErrNothingToPublish is returned when no target is still pending with
// retry budget left. Calling publish again on a finished post is
// therefore a clean no-op at the API layer.
var ErrNothingToPublish = errors.New("nothing to publish")

// PublishResult is the outcome of one target attempt.
type PublishResult struct {
	Platform       string
	Success        bool
	PlatformPostID string
	Error          *model.PlatformError
}

// PublishOutcome aggregates one publish call over all attempted targets.
type PublishOutcome struct {
	PostID       int64
	Results      []PublishResult
	AllPublished bool
	AnyPublished bool
}

type IPublishUsecase interface {
	Publish(ctx context.Context, postID int64, userID string) (*PublishOutcome, error)
}

type PublishUsecase struct {
	postRepository       repository.IPost
	connectionRepository repository.IConnection
	publishers           map[string]repository.IPublisher
	audit                repository.IPublishAudit
	hub                  *realtime.Hub
	events               pubsub.IPostEvents
	busEvents            servicebus.IPostEvents
}

func NewPublishUsecase(
	postRepository repository.IPost,
	connectionRepository repository.IConnection,
	publishers map[string]repository.IPublisher,
	audit repository.IPublishAudit,
	hub *realtime.Hub,
	events pubsub.IPostEvents,
	busEvents servicebus.IPostEvents,
) IPublishUsecase {
	return &PublishUsecase{
		postRepository:       postRepository,
		connectionRepository: connectionRepository,
		publishers:           publishers,
		audit:                audit,
		hub:                  hub,
		events:               events,
		busEvents:            busEvents,
	}
}

// Publish attempts every eligible target of the post concurrently. Each
// failed attempt consumes one retry; a target whose budget is exhausted
// goes terminal. The post itself is promoted to published as soon as any
// target has ever succeeded.
func (u *PublishUsecase) Publish(ctx context.Context, postID int64, userID string) (*PublishOutcome, error) {
	post, err := u.postRepository.GetPostWithTargets(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	var eligible []*model.PlatformTarget
	for _, t := range post.Targets {
		if model.Eligible(t.Status, t.RetryCount, t.MaxRetries) {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNothingToPublish
	}

	platforms := make([]string, 0, len(eligible))
	for _, t := range eligible {
		platforms = append(platforms, t.Platform)
	}
	connections, err := u.connectionRepository.GetActiveByPlatforms(ctx, userID, platforms)
	if err != nil {
		return nil, err
	}
	byPlatform := make(map[string]*model.SocialConnection, len(connections))
	for _, c := range connections {
		if _, ok := byPlatform[c.Platform]; !ok {
			byPlatform[c.Platform] = c
		}
	}

	var (
		mu      sync.Mutex
		results = make([]PublishResult, 0, len(eligible))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, target := range eligible {
		target := target
		g.Go(func() error {
			result := u.publishTarget(gctx, post, target, byPlatform[target.Platform])
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	outcome := &PublishOutcome{PostID: post.ID, Results: results, AllPublished: true}
	for _, r := range results {
		if r.Success {
			outcome.AnyPublished = true
		} else {
			outcome.AllPublished = false
		}
	}

	if outcome.AnyPublished {
		if err := u.postRepository.MarkPostPublished(ctx, post.ID, time.Now().UTC()); err != nil {
			logger.GetLogger().WithField("error", err).Error("promote post failed")
		}
	}
	u.emitOutcome(ctx, userID, outcome)
	return outcome, nil
}

// publishTarget runs one attempt and records its bookkeeping. A missing
// connection counts as a failed attempt so a dead connection cannot keep
// a target pending forever.
func (u *PublishUsecase) publishTarget(ctx context.Context, post *model.Post, target *model.PlatformTarget, conn *model.SocialConnection) PublishResult {
	if conn == nil {
		return u.recordFailure(ctx, post, target,
			model.NewPlatformError(model.ErrCodeConnectionMissing, "no active connection for "+target.Platform))
	}
	publisher, ok := u.publishers[target.Platform]
	if !ok {
		return u.recordFailure(ctx, post, target,
			model.NewPlatformError(model.ErrCodeUnsupportedPlatform, "no publisher for "+target.Platform))
	}

	platformPostID, err := publisher.Publish(ctx, post.Content, post.Images, conn.Credential())
	if err != nil {
		return u.recordFailure(ctx, post, target, model.AsPlatformError(err))
	}

	publishedAt := time.Now().UTC()
	if err := u.postRepository.MarkTargetPublished(ctx, target.ID, platformPostID, publishedAt); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":     err,
			"target_id": target.ID,
		}).Error("persist target success failed")
	}
	target.Status = model.TargetStatusPublished
	target.PlatformPostID = &platformPostID
	target.PublishedAt = &publishedAt

	u.recordAudit(ctx, post, target.Platform, model.TargetStatusPublished, &platformPostID, nil)
	u.broadcast(post, target.Platform, model.TargetStatusPublished, &platformPostID, nil)
	return PublishResult{Platform: target.Platform, Success: true, PlatformPostID: platformPostID}
}

func (u *PublishUsecase) recordFailure(ctx context.Context, post *model.Post, target *model.PlatformTarget, perr *model.PlatformError) PublishResult {
	newCount := target.RetryCount + 1
	status := model.TargetStatusPending
	if newCount >= target.MaxRetries {
		status = model.TargetStatusFailed
	}
	msg := perr.Error()
	if err := u.postRepository.MarkTargetFailed(ctx, target.ID, status, msg); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":     err,
			"target_id": target.ID,
		}).Error("persist target failure failed")
	}
	target.RetryCount = newCount
	target.Status = status
	target.ErrorMessage = &msg

	u.recordAudit(ctx, post, target.Platform, status, nil, &msg)
	u.broadcast(post, target.Platform, status, nil, &msg)
	return PublishResult{Platform: target.Platform, Error: perr}
}

func (u *PublishUsecase) recordAudit(ctx context.Context, post *model.Post, platform, status string, platformPostID, errMsg *string) {
	if u.audit == nil {
		return
	}
	_ = u.audit.Record(ctx, &model.PublishAudit{
		PostID:         post.ID,
		Platform:       platform,
		UserID:         post.UserID,
		Status:         status,
		PlatformPostID: platformPostID,
		ErrorMessage:   errMsg,
		CreatedAt:      time.Now().UTC(),
	})
}

func (u *PublishUsecase) broadcast(post *model.Post, platform, status string, platformPostID, errMsg *string) {
	if u.hub == nil {
		return
	}
	u.hub.BroadcastPublishStatus(post.UserID, realtime.PublishStatusEvent{
		PostID:         post.ID,
		Platform:       platform,
		Status:         status,
		PlatformPostID: platformPostID,
		Error:          errMsg,
	})
}

// emitOutcome forwards the aggregate to the configured brokers. Both are
// best effort; a broker outage never fails the publish call.
func (u *PublishUsecase) emitOutcome(ctx context.Context, userID string, outcome *PublishOutcome) {
	if u.events == nil && u.busEvents == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"post_id":       outcome.PostID,
		"user_id":       userID,
		"all_published": outcome.AllPublished,
		"any_published": outcome.AnyPublished,
		"attempted":     len(outcome.Results),
	})
	if err != nil {
		return
	}
	if u.events != nil {
		if _, err := u.events.PublishOutcome(ctx, payload); err != nil {
			logger.GetLogger().WithField("error", err).Warn("pubsub outcome event failed")
		}
	}
	if u.busEvents != nil {
		if err := u.busEvents.Send(ctx, payload); err != nil {
			logger.GetLogger().WithField("error", err).Warn("servicebus outcome event failed")
		}
	}
}
