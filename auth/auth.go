package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"imagehub/models"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
)

// mySigningKey should be a strong, randomly generated secret key,
// and it should be stored securely (e.g., in environment variables,
// a key management service, etc.), NOT hardcoded in your source code.
var mySigningKey = []byte("mySigningKey")

var tokenExpiry = 24 * time.Hour

// SetSigningKey allows setting the key from outside the package.
func SetSigningKey(key []byte) {
	if len(key) > 0 {
		mySigningKey = key
	}
}

// SetTokenExpiry overrides the default token lifetime.
func SetTokenExpiry(d time.Duration) {
	if d > 0 {
		tokenExpiry = d
	}
}

// Request attribute keys populated by AuthFilter.
const (
	AttrUserID = "user_id"
	AttrEmail  = "email"
	AttrRole   = "role"
)

// CustomClaims represents the custom claims you want to include in your JWT.
// The user id travels in the registered Subject claim.
type CustomClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT for the given user.
func GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "imagehub",
		},
	}

	// Create the token with the claims and sign it.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(mySigningKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseAndValidateToken verifies the signature and standard claims and
// returns the embedded custom claims.
func ParseAndValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return mySigningKey, nil
	})

	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, errors.New("malformed token")
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				return nil, errors.New("token is either expired or not active yet")
			} else if ve.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// SubjectID parses the numeric user id out of the Subject claim.
func (c *CustomClaims) SubjectID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject claim: %w", err)
	}
	return uint(id), nil
}

// UserValidator rehydrates the caller's identity from a token subject. The
// identity service implements it; the filter uses it so stale tokens for
// deleted users are rejected.
type UserValidator interface {
	ValidateUser(id uint) (*models.User, error)
}

// AuthFilter creates a go-restful FilterFunction for JWT authentication.
// On success the caller's id, email and role are stored as request attributes.
func AuthFilter(validator UserValidator) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		authHeader := req.HeaderParameter("Authorization")
		if authHeader == "" {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Authorization header required"}, restful.MIME_JSON)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Invalid authorization header format"}, restful.MIME_JSON)
			return
		}
		tokenString := parts[1]

		claims, err := ParseAndValidateToken(tokenString)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": err.Error()}, restful.MIME_JSON)
			return
		}

		userID, err := claims.SubjectID()
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "invalid token"}, restful.MIME_JSON)
			return
		}

		user, err := validator.ValidateUser(userID)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "User not found"}, restful.MIME_JSON)
			return
		}

		// Store user information in request attributes for use by subsequent processing functions
		req.SetAttribute(AttrUserID, user.ID)
		req.SetAttribute(AttrEmail, user.Email)
		req.SetAttribute(AttrRole, user.Role)

		// Continue handling the chain
		chain.ProcessFilter(req, resp)
	}
}

// RequireRole creates a filter that rejects callers whose role is not in the
// allowed set. It must run after AuthFilter.
func RequireRole(roles ...models.Role) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		role, ok := req.Attribute(AttrRole).(models.Role)
		if !ok {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Unauthorized"}, restful.MIME_JSON)
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				chain.ProcessFilter(req, resp)
				return
			}
		}
		_ = resp.WriteHeaderAndJson(http.StatusForbidden, map[string]string{"message": "Forbidden: insufficient role"}, restful.MIME_JSON)
	}
}

// CallerFromRequest reads the identity attributes set by AuthFilter.
func CallerFromRequest(req *restful.Request) (uint, models.Role, bool) {
	id, okID := req.Attribute(AttrUserID).(uint)
	role, okRole := req.Attribute(AttrRole).(models.Role)
	return id, role, okID && okRole
}
