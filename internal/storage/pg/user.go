package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobaboard/bobaserver/internal/domain"
	internal_errors "github.com/bobaboard/bobaserver/internal/errors"
)

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	var user domain.User
	var username, avatar sql.NullString
	err := s.db.QueryRowContext(ctx, `
        SELECT id, external_id, username, avatar_reference_id, invited_by, created_on
        FROM users WHERE id = $1
    `, id).Scan(&user.Id, &user.ExternalId, &username, &avatar, &user.InvitedBy, &user.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	user.Username = username.String
	user.Avatar = avatar.String
	return user, nil
}

func (s *Storage) UpdateUserData(ctx context.Context, id domain.UserId, username, avatarUrl string) error {
	result, err := s.db.ExecContext(ctx, `
        UPDATE users
        SET username = $2, avatar_reference_id = $3
        WHERE id = $1
    `, id, username, avatarUrl)
	if err != nil {
		return fmt.Errorf("failed to update user data: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("User not found")
	}
	return nil
}

// UpsertDismissNotifications records "now" as the user's notification
// baseline. Single row per user; the upsert is one atomic statement so a
// concurrent read never observes a torn value.
func (s *Storage) UpsertDismissNotifications(ctx context.Context, user domain.UserId) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO dismiss_notifications_requests (user_id, dismiss_request_time)
        VALUES ($1, NOW())
        ON CONFLICT (user_id) DO UPDATE
            SET dismiss_request_time = NOW()
    `, user)
	if err != nil {
		return fmt.Errorf("failed to upsert dismissal: %w", err)
	}
	return nil
}

// BobadexRows returns every secret identity in creation order, flagging the
// ones this user has posted under at least once.
func (s *Storage) BobadexRows(ctx context.Context, user domain.UserId) ([]domain.BobadexIdentity, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT si.display_name, si.avatar_reference_id,
               bool_or(uti.user_id IS NOT NULL) AS caught
        FROM secret_identities si
        LEFT JOIN user_thread_identities uti ON uti.identity_id = si.id AND uti.user_id = $1
        GROUP BY si.id
        ORDER BY si.id
    `, user)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bobadex rows: %w", err)
	}
	defer rows.Close()

	var identities []domain.BobadexIdentity
	for rows.Next() {
		var identity domain.BobadexIdentity
		if err := rows.Scan(&identity.Name, &identity.Avatar, &identity.Caught); err != nil {
			return nil, fmt.Errorf("failed to scan bobadex row: %w", err)
		}
		identities = append(identities, identity)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return identities, nil
}

func (s *Storage) GetInvite(ctx context.Context, nonce string) (domain.Invite, error) {
	var invite domain.Invite
	err := s.db.QueryRowContext(ctx, `
        SELECT nonce, inviter, invitee_email, used, created + duration < NOW() AS expired
        FROM account_invites
        WHERE nonce = $1
    `, nonce).Scan(&invite.Nonce, &invite.InviterId, &invite.InviteeEmail, &invite.Used, &invite.Expired)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Invite{}, internal_errors.NotFound("Invite not found")
		}
		return domain.Invite{}, fmt.Errorf("failed to fetch invite: %w", err)
	}
	return invite, nil
}

// RedeemInvite marks the invite used and creates the user row in one
// transaction, wiring the inviter into invited_by.
func (s *Storage) RedeemInvite(ctx context.Context, nonce, externalId string) (domain.UserId, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inviter domain.UserId
	err = tx.QueryRowContext(ctx, `
        UPDATE account_invites
        SET used = TRUE
        WHERE nonce = $1 AND used = FALSE
        RETURNING inviter
    `, nonce).Scan(&inviter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, internal_errors.NotFound("Invite not found")
		}
		return 0, fmt.Errorf("failed to mark invite used: %w", err)
	}

	var userId domain.UserId
	err = tx.QueryRowContext(ctx, `
        INSERT INTO users (external_id, invited_by, created_on)
        VALUES ($1, $2, NOW())
        RETURNING id
    `, externalId, inviter).Scan(&userId)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return userId, nil
}
