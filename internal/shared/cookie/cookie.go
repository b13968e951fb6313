package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const cookieName string = "session"

var (
	ErrValueTooLong = errors.New("cookie value too long")
	ErrInvalidValue = errors.New("invalid cookie value")
)

// encrypt creates a tamper-proof session cookie by encrypting the session ID along with
// the cookie name using AES-GCM. Including the cookie name prevents cookie substitution attacks
// where an attacker tries to move cookies between different cookie names.
func encrypt(sessionID uuid.UUID, secret []byte, cookieName string) (*string, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	// Create a unique nonce containing 12 random bytes.
	nonce := make([]byte, aesGCM.NonceSize())
	_, err = io.ReadFull(rand.Reader, nonce)
	if err != nil {
		return nil, err
	}

	// The plaintext authenticates the cookie name as well as the value,
	// in the format "session:{session id}". The : character is invalid in
	// cookie names and therefore can't appear in them.
	plaintext := fmt.Sprintf("%s:%s", cookieName, sessionID.String())

	// Passing the nonce as the first parameter appends the encrypted data
	// to it, so the value ends up as "{nonce}{encrypted plaintext data}".
	encryptedValue := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)

	res := base64.URLEncoding.EncodeToString(encryptedValue)
	return &res, nil
}

// decrypt validates and extracts the session ID from a session cookie.
// It verifies both the encrypted content and that the cookie name matches expectations,
// preventing cookie substitution attacks and tampering.
func decrypt(encryptedSessionID string, secret []byte, expectedCookieName string) (*uuid.UUID, error) {
	value, err := base64.URLEncoding.DecodeString(encryptedSessionID)
	if err != nil {
		return nil, ErrInvalidValue
	}

	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(value) < nonceSize {
		return nil, ErrInvalidValue
	}

	nonce := value[:nonceSize]
	ciphertext := value[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidValue
	}

	// The plaintext value is in the format "{cookie name}:{cookie value}".
	actualName, sessionIDStr, ok := strings.Cut(string(plaintext), ":")
	if !ok {
		return nil, ErrInvalidValue
	}

	if actualName != expectedCookieName {
		return nil, ErrInvalidValue
	}

	res, err := uuid.Parse(sessionIDStr)
	if err != nil {
		return nil, ErrInvalidValue
	}
	return &res, nil
}

func GetCookie(r *http.Request, secret []byte) (*uuid.UUID, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, err
	}

	return decrypt(cookie.Value, secret, cookieName)
}

func SetCookie(w http.ResponseWriter, sessionID uuid.UUID, secret []byte) error {
	encryptedValue, err := encrypt(sessionID, secret, cookieName)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    *encryptedValue,
		HttpOnly: true,
		// Send cookie to all routes in the app
		Path:   "/",
		Secure: true,
	})
	return nil
}

// RemoveCookie expires the session cookie on the client.
func RemoveCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		Secure:   true,
		MaxAge:   -1,
	})
}
