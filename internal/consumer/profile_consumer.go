package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Faheem12005/pathable-backend/internal/models"
	"github.com/Faheem12005/pathable-backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys published by the profile service.
const (
	KeyUserCreated       = "user.created"
	KeyUserUpdated       = "user.updated"
	KeyGroupCreated      = "group.created"
	KeyGroupUpdated      = "group.updated"
	KeyGroupMemberJoined = "group.member_joined"
	KeyGroupMemberLeft   = "group.member_left"
)

var errMalformed = errors.New("malformed message")

type membershipMessage struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

// ProfileConsumer mirrors riders, groups and memberships into the local
// database so allocation never calls the profile service.
type ProfileConsumer struct {
	users  repository.UserRepository
	groups repository.GroupRepository
	logger *slog.Logger
}

func NewProfileConsumer(users repository.UserRepository, groups repository.GroupRepository, logger *slog.Logger) *ProfileConsumer {
	return &ProfileConsumer{users: users, groups: groups, logger: logger.With("component", "profile_consumer")}
}

// Start drains msgs in the background until the channel closes.
func (pc *ProfileConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			pc.handleMessage(ctx, msg)
		}
		pc.logger.Info("channel closed, stopping consumer")
	}()
}

func (pc *ProfileConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	err := pc.handle(ctx, msg.RoutingKey, msg.Body)
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, errMalformed):
		pc.logger.Warn("dropping message", "routing_key", msg.RoutingKey, "error", err)
		msg.Nack(false, false)
	default:
		pc.logger.Error("sync failed, requeueing", "routing_key", msg.RoutingKey, "error", err)
		msg.Nack(false, true)
	}
}

func (pc *ProfileConsumer) handle(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case KeyUserCreated, KeyUserUpdated:
		var user models.User
		if err := json.Unmarshal(body, &user); err != nil || user.ID == "" {
			return fmt.Errorf("%w: user: %v", errMalformed, err)
		}
		if err := pc.users.Upsert(ctx, &user); err != nil {
			return fmt.Errorf("upsert user %s: %w", user.ID, err)
		}
		pc.logger.Info("synced user", "user_id", user.ID)

	case KeyGroupCreated, KeyGroupUpdated:
		var group models.Group
		if err := json.Unmarshal(body, &group); err != nil || group.ID == "" {
			return fmt.Errorf("%w: group: %v", errMalformed, err)
		}
		if err := pc.groups.UpsertGroup(ctx, &group); err != nil {
			return fmt.Errorf("upsert group %s: %w", group.ID, err)
		}
		pc.logger.Info("synced group", "group_id", group.ID)

	case KeyGroupMemberJoined, KeyGroupMemberLeft:
		var m membershipMessage
		if err := json.Unmarshal(body, &m); err != nil || m.GroupID == "" || m.UserID == "" {
			return fmt.Errorf("%w: membership: %v", errMalformed, err)
		}
		if routingKey == KeyGroupMemberLeft {
			if err := pc.groups.RemoveMember(ctx, m.GroupID, m.UserID); err != nil {
				return fmt.Errorf("remove member: %w", err)
			}
		} else if err := pc.groups.AddMember(ctx, &models.GroupMember{GroupID: m.GroupID, UserID: m.UserID}); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		pc.logger.Info("synced membership", "group_id", m.GroupID, "user_id", m.UserID, "event", routingKey)

	default:
		pc.logger.Debug("ignoring message", "routing_key", routingKey)
	}
	return nil
}
