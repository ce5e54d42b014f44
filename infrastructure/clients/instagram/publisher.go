package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"syncsns/domain/model"
	"syncsns/domain/repository"
	"syncsns/infrastructure/cache"
	"syncsns/infrastructure/logger"
)

// Publisher publishes image posts through the Instagram content
// publishing API. Instagram has no text-only posts, so at least one
// image is required before any network call is made.
type Publisher struct {
	client   *Client
	identity cache.IIdentityCache
}

func NewPublisher(client *Client, identity cache.IIdentityCache) repository.IPublisher {
	return &Publisher{client: client, identity: identity}
}

func (p *Publisher) Publish(ctx context.Context, content string, images []string, cred model.Credential) (string, error) {
	if len(images) == 0 {
		return "", model.NewPlatformError(model.ErrCodeMediaRequired, "instagram requires at least one image")
	}

	igID, err := p.resolveIdentity(ctx, cred.AccessToken)
	if err != nil {
		return "", err
	}

	var creationID string
	if len(images) == 1 {
		creationID, err = p.createContainer(ctx, igID, cred.AccessToken, map[string]interface{}{
			"image_url": images[0],
			"caption":   content,
		})
	} else {
		creationID, err = p.createCarousel(ctx, igID, cred.AccessToken, content, images)
	}
	if err != nil {
		return "", err
	}

	return p.commit(ctx, igID, cred.AccessToken, creationID)
}

// resolveIdentity returns the account id for the token, consulting the
// identity cache before calling /me.
func (p *Publisher) resolveIdentity(ctx context.Context, accessToken string) (string, error) {
	if p.identity != nil {
		if id, ok := p.identity.Get(ctx, accessToken); ok {
			return id, nil
		}
	}
	account, err := p.client.GetProfile(ctx, accessToken)
	if err != nil {
		return "", err
	}
	if p.identity != nil {
		p.identity.Set(ctx, accessToken, account.ID)
	}
	return account.ID, nil
}

// createCarousel creates one child container per image, then the
// carousel container referencing them in order. The caption lives on the
// carousel, not the children.
func (p *Publisher) createCarousel(ctx context.Context, igID, accessToken, content string, images []string) (string, error) {
	children := make([]string, 0, len(images))
	for _, img := range images {
		childID, err := p.createContainer(ctx, igID, accessToken, map[string]interface{}{
			"image_url":        img,
			"is_carousel_item": true,
		})
		if err != nil {
			return "", err
		}
		children = append(children, childID)
	}
	return p.createContainer(ctx, igID, accessToken, map[string]interface{}{
		"media_type": "CAROUSEL",
		"children":   strings.Join(children, ","),
		"caption":    content,
	})
}

func (p *Publisher) createContainer(ctx context.Context, igID, accessToken string, body map[string]interface{}) (string, error) {
	return p.doGraphPost(ctx, fmt.Sprintf("/%s/%s/media", graphVersion, igID), accessToken, body)
}

func (p *Publisher) commit(ctx context.Context, igID, accessToken, creationID string) (string, error) {
	return p.doGraphPost(ctx, fmt.Sprintf("/%s/%s/media_publish", graphVersion, igID), accessToken, map[string]interface{}{
		"creation_id": creationID,
	})
}

func (p *Publisher) doGraphPost(ctx context.Context, path, accessToken string, body map[string]interface{}) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.client.cfg.GraphBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.http.Do(req)
	if err != nil {
		return "", model.NewPlatformError(model.ErrCodePlatformRejected, err.Error())
	}
	defer resp.Body.Close()

	var out containerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", model.NewPlatformError(model.ErrCodePlatformRejected, "malformed graph response")
	}
	if resp.StatusCode != http.StatusOK || out.ID == "" {
		msg := fmt.Sprintf("graph call returned status %d", resp.StatusCode)
		if out.Error != nil {
			msg = out.Error.Message
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("instagram graph call rejected")
		return "", model.NewPlatformError(model.ErrCodePlatformRejected, msg)
	}
	return out.ID, nil
}
