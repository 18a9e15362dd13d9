package services

import (
	"time"

	"whatstrumps/engine"
	"whatstrumps/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *ServiceSuite) TestRegisterCreatesLinkedPlayer() {
	resp, err := s.auth.Register(&RegisterRequest{
		Email:     " bob@Example.COM ",
		Password:  "correct horse",
		FirstName: "Bob",
		LastName:  "Baker",
	})
	s.Require().NoError(err)
	s.Equal("bob@example.com", resp.User.Email)
	s.NotEqual("correct horse", resp.User.PasswordHash)
	s.Require().NotNil(resp.User.Player)
	s.Require().NotNil(resp.User.Player.UserID)
	s.Equal(resp.User.ID, *resp.User.Player.UserID)
	s.Equal(resp.User.ID, resp.User.Player.CreatedByUserID)

	claims, err := s.auth.ValidateToken(resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, claims.UserID)
	s.False(claims.IsSuperuser)
}

func (s *ServiceSuite) TestRegisterRejectsTakenEmail() {
	_, err := s.auth.Register(&RegisterRequest{
		Email:     "alice@EXAMPLE.com",
		Password:  "another one",
		FirstName: "Alice",
		LastName:  "Again",
	})
	s.ErrorIs(err, ErrEmailTaken)
	s.ErrorIs(err, engine.ErrValidation)
}

func (s *ServiceSuite) TestRegisterLosingRaceReportsTakenEmail() {
	raced := false
	err := s.db.Callback().Create().Before("gorm:create").Register("race_registration", func(db *gorm.DB) {
		if db.Statement.Table != "users" || raced {
			return
		}
		raced = true
		now := time.Now()
		db.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO users (email, first_name, last_name, password_hash, is_superuser, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			"carol@example.com", "Carol", "First", "x", false, now, now,
		)
	})
	s.Require().NoError(err)

	_, err = s.auth.Register(&RegisterRequest{
		Email:     "carol@example.com",
		Password:  "correct horse",
		FirstName: "Carol",
		LastName:  "Second",
	})
	s.True(raced)
	s.ErrorIs(err, ErrEmailTaken)

	var players int64
	s.Require().NoError(s.db.Model(&models.Player{}).Where("first_name = ?", "Carol").Count(&players).Error)
	s.Zero(players)
}

func (s *ServiceSuite) TestLogin() {
	resp, err := s.auth.Login(&LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	s.Require().NoError(err)
	s.Equal(s.alice.UserID, resp.User.ID)
	s.NotEmpty(resp.Token)

	_, err = s.auth.Login(&LoginRequest{Email: "alice@example.com", Password: "wrong"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.auth.Login(&LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLogoutRevokesToken() {
	resp, err := s.auth.Login(&LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	s.Require().NoError(err)
	claims, err := s.auth.ValidateToken(resp.Token)
	s.Require().NoError(err)

	s.Require().NoError(s.auth.Logout(claims.ID))
	_, err = s.auth.ValidateToken(resp.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestValidateTokenRejectsForgeries() {
	resp, err := s.auth.Login(&LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	s.Require().NoError(err)

	_, err = s.auth.ValidateToken(resp.Token + "x")
	s.ErrorIs(err, ErrInvalidToken)

	other := NewAuthService(s.db, "another-secret", time.Hour, zap.NewNop())
	_, err = other.ValidateToken(resp.Token)
	s.ErrorIs(err, ErrInvalidToken)

	_, err = s.auth.ValidateToken("")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestExpiredSessionsArePurged() {
	resp, err := s.auth.Login(&LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	s.Require().NoError(err)

	s.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.auth.ValidateToken(resp.Token)
	s.ErrorIs(err, ErrInvalidToken)

	removed, err := s.auth.PurgeExpiredSessions()
	s.Require().NoError(err)
	s.EqualValues(2, removed)

	var left int64
	s.Require().NoError(s.db.Model(&models.SessionToken{}).Count(&left).Error)
	s.Zero(left)
}

func (s *ServiceSuite) TestUpdateProfileRenamesPlayer() {
	user, err := s.auth.UpdateProfile(s.alice.UserID, &UpdateProfileRequest{FirstName: " Alicia ", LastName: "Archer"})
	s.Require().NoError(err)
	s.Equal("Alicia", user.FirstName)
	s.Require().NotNil(user.Player)
	s.Equal("Alicia", user.Player.FirstName)

	_, err = s.auth.UpdateProfile(9999, &UpdateProfileRequest{FirstName: "No", LastName: "One"})
	s.ErrorIs(err, engine.ErrNotFound)
}

func (s *ServiceSuite) TestGetProfile() {
	user, err := s.auth.GetProfile(s.alice.UserID)
	s.Require().NoError(err)
	s.Equal("alice@example.com", user.Email)
	s.Require().NotNil(user.Player)
	s.Equal("Alice Archer", user.Player.FullName())

	_, err = s.auth.GetProfile(9999)
	s.ErrorIs(err, engine.ErrNotFound)
}
