package account

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/ayush/fundraiser/backend/internal/models"
)

// MaxInterest is the largest number of interest submissions an item holds.
const MaxInterest = 2

// emailPattern is shared by account usernames and interest submitters.
var emailPattern = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// IsEmail reports whether v is shaped like an email address.
func IsEmail(v string) bool {
	return emailPattern.MatchString(v)
}

// RoundPrice rounds half-up to cents.
func RoundPrice(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Normalize applies the write-time setters: trims strings and rounds prices.
func Normalize(a *models.Account) {
	a.Username = strings.TrimSpace(a.Username)
	a.Credential = strings.TrimSpace(a.Credential)
	for i := range a.Items {
		NormalizeItem(&a.Items[i])
	}
}

func NormalizeItem(it *models.Item) {
	it.Name = strings.TrimSpace(it.Name)
	it.Description = strings.TrimSpace(it.Description)
	it.ImgURL = strings.TrimSpace(it.ImgURL)
	it.Price = RoundPrice(it.Price)
	if it.Interest == nil {
		it.Interest = []models.Interest{}
	}
	for j := range it.Interest {
		NormalizeInterest(&it.Interest[j])
	}
}

func NormalizeInterest(in *models.Interest) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
}

// Validate checks every field of the account and cascades into its items and
// their interest lists. All failures are reported together.
func Validate(a *models.Account) error {
	var errs ValidationErrors

	switch {
	case a.Username == "":
		errs.add("username", "Username is required")
	case !IsEmail(a.Username):
		errs.add("username", fmt.Sprintf("%s is not a valid email address!", a.Username))
	}

	if a.Credential != "" {
		if reason := checkPasswordPolicy(a.Credential); reason != "" {
			errs.add("password", reason)
		}
	} else if a.Password == "" {
		errs.add("password", "Password is required")
	}

	if a.Goal != nil && *a.Goal < 0 {
		errs.add("goal", "goal cannot be negative")
	}
	if a.Revenue < 0 {
		errs.add("revenue", "revenue cannot be negative")
	}

	for i := range a.Items {
		validateItem(&errs, fmt.Sprintf("items.%d", i), &a.Items[i])
	}
	return errs.err()
}

// ValidateItem checks a single item outside of an account write.
func ValidateItem(it *models.Item) error {
	var errs ValidationErrors
	validateItem(&errs, "item", it)
	return errs.err()
}

// ValidateInterest checks a single interest submission.
func ValidateInterest(in *models.Interest) error {
	var errs ValidationErrors
	validateInterest(&errs, "interest", in)
	return errs.err()
}

func validateItem(errs *ValidationErrors, prefix string, it *models.Item) {
	if it.Name == "" {
		errs.add(prefix+".name", "Enter a name for the item")
	}
	switch {
	case math.IsNaN(it.Price) || math.IsInf(it.Price, 0):
		errs.add(prefix+".price", "price must be a number")
	case it.Price < 0:
		errs.add(prefix+".price", "price cannot be negative")
	}
	if len(it.Interest) > MaxInterest {
		errs.add(prefix+".interest", "Too many people are interested in this item")
	}
	for j := range it.Interest {
		validateInterest(errs, fmt.Sprintf("%s.interest.%d", prefix, j), &it.Interest[j])
	}
}

func validateInterest(errs *ValidationErrors, prefix string, in *models.Interest) {
	if in.Name == "" {
		errs.add(prefix+".name", "A name is required to show interest")
	}
	switch {
	case in.Email == "":
		errs.add(prefix+".email", "An email is required to show interest")
	case !IsEmail(in.Email):
		errs.add(prefix+".email", fmt.Sprintf("%s is not a valid email address!", in.Email))
	}
	if in.Message == "" {
		errs.add(prefix+".message", "A message is required to show interest")
	}
}

const passwordRule = "Password must be between 8 to 15 characters and contain at least one lowercase letter, one uppercase letter, one numeric digit, and one special character"

// checkPasswordPolicy returns an empty string when plain is acceptable.
// RE2 has no lookahead, so the character classes are counted by hand.
func checkPasswordPolicy(plain string) string {
	n := len([]rune(plain))
	if n < 8 || n > 15 {
		return passwordRule
	}
	var lower, upper, digit, special bool
	for _, r := range plain {
		switch {
		case unicode.IsSpace(r):
			return passwordRule
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return passwordRule
	}
	return ""
}
