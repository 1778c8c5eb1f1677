package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/johngerving/3D-Building-Map-sub000/internal/db/dbgen"
	"github.com/johngerving/3D-Building-Map-sub000/internal/typeid"
)

const (
	SessionTTL = 7 * 24 * time.Hour
	stateTTL   = 10 * time.Minute

	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidState     = errors.New("invalid oauth state")
	ErrOAuthDisabled    = errors.New("google sign-in is not configured")
	ErrEmailNotVerified = errors.New("google account email is not verified")
)

// UserStore is the subset of dbgen.Queries the auth service needs.
type UserStore interface {
	UpsertUser(ctx context.Context, arg dbgen.UpsertUserParams) (dbgen.User, error)
	GetUserByID(ctx context.Context, id string) (dbgen.User, error)
}

type Service struct {
	users       UserStore
	sessionKey  []byte
	stateKey    []byte
	oauth       *oauth2.Config
	userInfoURL string
	admins      map[string]bool
	now         func() time.Time
}

type Options struct {
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AdminEmails        []string
}

func NewService(users UserStore, opts Options) (*Service, error) {
	sessionKey, err := deriveKey(opts.SessionSecret, "building-map session")
	if err != nil {
		return nil, err
	}
	stateKey, err := deriveKey(opts.SessionSecret, "building-map oauth state")
	if err != nil {
		return nil, err
	}

	s := &Service{
		users:       users,
		sessionKey:  sessionKey,
		stateKey:    stateKey,
		userInfoURL: googleUserInfoURL,
		admins:      make(map[string]bool, len(opts.AdminEmails)),
		now:         time.Now,
	}
	for _, email := range opts.AdminEmails {
		s.admins[strings.ToLower(email)] = true
	}
	if opts.GoogleClientID != "" {
		s.oauth = &oauth2.Config{
			ClientID:     opts.GoogleClientID,
			ClientSecret: opts.GoogleClientSecret,
			RedirectURL:  opts.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return s, nil
}

// deriveKey expands the configured secret into a 32-byte key per purpose.
func deriveKey(secret, info string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
	Admin       bool   `json:"admin"`
}

// Session is what a validated token says about the caller.
type Session struct {
	UserID string
	Email  string
	Admin  bool
}

func (s *Service) IsAdmin(email string) bool {
	return s.admins[strings.ToLower(email)]
}

// AuthCodeURL starts the Google flow. The returned state must be stored in
// the state cookie and echoed back by Google.
func (s *Service) AuthCodeURL() (url, state string, err error) {
	if s.oauth == nil {
		return "", "", ErrOAuthDisabled
	}
	state, err = s.newState()
	if err != nil {
		return "", "", err
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), state, nil
}

// newState returns nonce.expiry.mac, all base64url.
func (s *Service) newState() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(nonce) + "." +
		strconv.FormatInt(s.now().Add(stateTTL).Unix(), 10)
	return payload + "." + s.signState(payload), nil
}

func (s *Service) signState(payload string) string {
	mac := hmac.New(sha256.New, s.stateKey)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyState checks that the state returned by Google matches the cookie,
// carries our signature and has not expired.
func (s *Service) VerifyState(returned, cookie string) error {
	if returned == "" || !hmac.Equal([]byte(returned), []byte(cookie)) {
		return ErrInvalidState
	}
	i := strings.LastIndexByte(returned, '.')
	if i < 0 {
		return ErrInvalidState
	}
	payload, sig := returned[:i], returned[i+1:]
	if !hmac.Equal([]byte(sig), []byte(s.signState(payload))) {
		return ErrInvalidState
	}
	j := strings.LastIndexByte(payload, '.')
	if j < 0 {
		return ErrInvalidState
	}
	expiry, err := strconv.ParseInt(payload[j+1:], 10, 64)
	if err != nil || s.now().Unix() > expiry {
		return ErrInvalidState
	}
	return nil
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// CompleteLogin exchanges the authorization code, upserts the Google user
// and issues a session token.
func (s *Service) CompleteLogin(ctx context.Context, code string) (string, *User, error) {
	if s.oauth == nil {
		return "", nil, ErrOAuthDisabled
	}
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("exchange code: %w", err)
	}

	info, err := s.fetchUserInfo(ctx, s.oauth.Client(ctx, tok))
	if err != nil {
		return "", nil, err
	}
	if !info.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	dbUser, err := s.users.UpsertUser(ctx, dbgen.UpsertUserParams{
		ID:          typeid.NewUserID(),
		GoogleSub:   info.Sub,
		Email:       info.Email,
		DisplayName: name,
		PictureURL:  info.Picture,
	})
	if err != nil {
		return "", nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.IssueToken(dbUser.ID, dbUser.Email)
	if err != nil {
		return "", nil, err
	}
	return token, s.toUser(dbUser), nil
}

func (s *Service) fetchUserInfo(ctx context.Context, client *http.Client) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, errors.New("userinfo is missing sub or email")
	}
	return &info, nil
}

func (s *Service) IssueToken(userID, email string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(SessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.sessionKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (s *Service) ValidateToken(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.sessionKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, errors.New("invalid token subject")
	}
	email, _ := claims["email"].(string)

	return &Session{UserID: userID, Email: email, Admin: s.IsAdmin(email)}, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	dbUser, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return s.toUser(dbUser), nil
}

func (s *Service) toUser(u dbgen.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PictureURL:  u.PictureURL,
		Admin:       s.IsAdmin(u.Email),
	}
}
