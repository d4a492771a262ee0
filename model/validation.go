package model

import (
	"errors"
	"net/url"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// isEmail matches a plausible mailbox address.
var isEmail = validation.Match(emailPattern).Error("must be a valid email address")

// isHTTPURL accepts absolute http and https URLs. Empty values are left to Required.
var isHTTPURL = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
})

// isRating enforces the inclusive 1..5 star range. Zero is rejected too.
var isRating = validation.By(func(value interface{}) error {
	r, _ := value.(int)
	if r < MinRating || r > MaxRating {
		return errors.New("must be between 1 and 5")
	}
	return nil
})
