package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: These are core error primitives used at every trust boundary.
// Unit tests ensure invariants like "wrapped domain errors preserve original code"
// and "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "entry not found"}
		s.Equal("entry not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeNotFound}
		s.Equal("not_found", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("connection refused")
		err := &Error{Code: CodeInternal, Message: "store error", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeNotFound, Message: "not found"}
		s.Nil(err.Unwrap())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeRateLimited, Message: "monthly budget spent"}
		err2 := &Error{Code: CodeRateLimited, Message: "limit hit"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodeUnauthorized}
		err2 := &Error{Code: CodeConfigMissing}
		s.False(err1.Is(err2))
	})

	s.Run("works with errors.Is through wrapping", func() {
		base := New(CodeTimeout, "remote store timed out")
		wrapped := Wrap(base, CodeInternal, "audit append failed")
		s.True(errors.Is(wrapped, &Error{Code: CodeTimeout}))
	})
}

func (s *DomainErrorsSuite) TestWrapPreservesCode() {
	inner := New(CodeConfigMissing, "no admin token")
	wrapped := Wrap(inner, CodeInternal, "admin gate unavailable")

	var e *Error
	s.Require().True(errors.As(wrapped, &e))
	s.Equal(CodeConfigMissing, e.Code)
	s.Equal("admin gate unavailable", e.Message)
}

func (s *DomainErrorsSuite) TestHasCode() {
	err := Wrap(errors.New("dial tcp: i/o timeout"), CodeTimeout, "upstream unavailable")
	s.True(HasCode(err, CodeTimeout))
	s.False(HasCode(err, CodeNotFound))
	s.False(HasCode(errors.New("plain"), CodeTimeout))
}
