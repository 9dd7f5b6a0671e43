package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
	"github.com/example/marque/internal/store"
	"github.com/example/marque/internal/utils"
)

// AuthService composes market detection, verification codes and user
// creation into the send-code / verify-code use cases.
type AuthService struct {
	dbm     *database.Manager
	cfg     *config.Config
	sms     *SMSService
	limiter AttemptLimiter
	log     *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(dbm *database.Manager, cfg *config.Config, sms *SMSService, limiter AttemptLimiter, log *zap.Logger) *AuthService {
	return &AuthService{dbm: dbm, cfg: cfg, sms: sms, limiter: limiter, log: log}
}

// SendCodeResult is returned from SendCode. FallbackCode is only populated
// when SMS dispatch failed and the code must be surfaced locally.
type SendCodeResult struct {
	Phone            string
	Market           market.Market
	Language         string
	ExpiresInMinutes int
	FallbackCode     string
}

// VerifyCodeResult is returned from VerifyCode.
type VerifyCodeResult struct {
	AccessToken string
	User        *models.User
	Market      market.Market
	IsNewUser   bool
}

// resolveMarket detects the market from the phone and applies an optional
// caller override. Override wins, but a disagreement with detection is an
// accepted escape hatch worth flagging in the logs.
func (a *AuthService) resolveMarket(phone, override string) (market.Market, error) {
	detected, err := market.Detect(phone)
	if err != nil {
		return "", err
	}
	if override == "" {
		return detected, nil
	}

	forced, err := market.Parse(override)
	if err != nil {
		return "", err
	}
	if forced != detected {
		a.log.Warn("market override disagrees with phone detection",
			zap.String("phone", phone),
			zap.String("detected", string(detected)),
			zap.String("override", string(forced)))
	}
	return forced, nil
}

// SendCode issues a verification code for the phone and dispatches it over
// SMS. Dispatch failure degrades to returning the code locally instead of
// failing the request.
func (a *AuthService) SendCode(ctx context.Context, rawPhone, overrideMarket string) (*SendCodeResult, error) {
	phone := market.NormalizePhone(rawPhone)

	mkt, err := a.resolveMarket(phone, overrideMarket)
	if err != nil {
		return nil, err
	}

	limitKey := phone + ":" + string(mkt)
	if err := a.limiter.Check(ctx, limitKey); err != nil {
		return nil, err
	}

	rules := market.MustRules(mkt)
	db := a.dbm.Session(mkt)

	user, err := store.Users(mkt).FindByPhone(db, phone)
	if err != nil {
		return nil, err
	}
	var userID *uuid.UUID
	if user != nil {
		userID = &user.ID
	}

	verification, err := store.Verifications(mkt).Issue(db, phone, userID)
	if err != nil {
		return nil, err
	}

	if err := a.limiter.Note(ctx, limitKey); err != nil {
		a.log.Warn("failed to record rate-limit attempt", zap.Error(err))
	}

	result := &SendCodeResult{
		Phone:            market.FormatPhone(phone, mkt),
		Market:           mkt,
		Language:         rules.Language,
		ExpiresInMinutes: int(rules.CodeTTL.Minutes()),
	}

	if !a.sms.SendVerification(phone, verification.Code) {
		a.log.Warn("sms not delivered, returning fallback code",
			zap.String("phone", phone), zap.String("market", string(mkt)))
		result.FallbackCode = verification.Code
	}

	return result, nil
}

// VerifyCode redeems the code, finds or creates the user in the market's own
// storage, marks it verified and issues a session token scoped to (user,
// market).
func (a *AuthService) VerifyCode(ctx context.Context, rawPhone, code, overrideMarket string) (*VerifyCodeResult, error) {
	phone := market.NormalizePhone(rawPhone)

	mkt, err := a.resolveMarket(phone, overrideMarket)
	if err != nil {
		return nil, err
	}

	db := a.dbm.Session(mkt)

	if _, err := store.Verifications(mkt).Redeem(db, phone, code); err != nil {
		return nil, err
	}

	users := store.Users(mkt)
	user, err := users.FindByPhone(db, phone)
	if err != nil {
		return nil, err
	}

	isNewUser := false
	if user == nil {
		user, err = users.Create(db, phone, "")
		if err != nil {
			return nil, err
		}
		isNewUser = true
	}

	if err := users.MarkVerified(db, user.ID); err != nil {
		return nil, err
	}
	user, err = users.FindByID(db, user.ID)
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(a.cfg.JWTSecret, user.ID, mkt, a.cfg.TokenExpires)
	if err != nil {
		return nil, err
	}

	return &VerifyCodeResult{
		AccessToken: token,
		User:        user,
		Market:      mkt,
		IsNewUser:   isNewUser,
	}, nil
}
