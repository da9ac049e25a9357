package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ArowuTest/jackpot-backend/internal/models"
)

var (
	errTelegramHash    = errors.New("telegram hash mismatch")
	errTelegramExpired = errors.New("telegram auth_date too old")
)

// VerifyTelegramLogin checks the login widget payload: the hash is
// HMAC-SHA256(key=SHA256(botToken)) over the sorted key=value lines.
func VerifyTelegramLogin(req models.TelegramLoginRequest, botToken string, maxAge time.Duration, now time.Time) error {
	fields := map[string]string{
		"id":        strconv.FormatInt(req.ID, 10),
		"auth_date": strconv.FormatInt(req.AuthDate, 10),
	}
	for k, v := range map[string]string{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"username":   req.Username,
		"photo_url":  req.PhotoURL,
	} {
		if v != "" {
			fields[k] = v
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + fields[k]
	}

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(req.Hash))) {
		return errTelegramHash
	}

	if maxAge > 0 && now.Sub(time.Unix(req.AuthDate, 0)) > maxAge {
		return errTelegramExpired
	}
	return nil
}
