package app

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// VoiceService mints Vivox access tokens so a table's players can share a
// voice channel. One channel exists per game, derived from the join code.
type VoiceService struct {
	secret string
	issuer string
	domain string
}

const (
	VoiceTokenActionLogin = "login"
	VoiceTokenActionJoin  = "join"

	voiceTokenTTL = time.Hour
)

func NewVoiceService(secret, issuer, domain string) *VoiceService {
	return &VoiceService{secret: secret, issuer: issuer, domain: domain}
}

// LoginToken signs a login token for the given user.
func (s *VoiceService) LoginToken(user string) (string, error) {
	return s.generate(user, VoiceTokenActionLogin, "")
}

// TableJoinToken signs a join token for the voice channel of one game.
func (s *VoiceService) TableJoinToken(user, gameCode string) (string, error) {
	if gameCode == "" {
		return "", fmt.Errorf("game code is required for join tokens")
	}
	return s.generate(user, VoiceTokenActionJoin, gameCode)
}

func (s *VoiceService) generate(user, action, gameCode string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("voice service is nil")
	}
	if user == "" {
		return "", fmt.Errorf("user is required")
	}
	if s.secret == "" || s.issuer == "" || s.domain == "" {
		return "", fmt.Errorf("voice config is incomplete")
	}

	userURI := s.userURI(user)
	targetURI := userURI
	if action == VoiceTokenActionJoin {
		targetURI = s.channelURI(gameCode)
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": user,
		"exp": time.Now().Add(voiceTokenTTL).Unix(),
		"vxa": action,
		"vxi": fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Int63()),
		"f":   userURI,
		"t":   targetURI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// ChannelName is the Vivox channel identifier for a game code.
func (s *VoiceService) ChannelName(gameCode string) string {
	return "hearts-" + strings.ToLower(gameCode)
}

func (s *VoiceService) userURI(user string) string {
	return "sip:." + s.issuer + "." + user + ".@" + s.domain
}

func (s *VoiceService) channelURI(gameCode string) string {
	return "sip:confctl-g-" + s.ChannelName(gameCode) + "@" + s.domain
}
