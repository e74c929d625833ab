package services

import (
	"errors"

	"backend/models"
	"backend/utils"

	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("that username is already taken")
	ErrEmailTaken         = errors.New("an account with that email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type AuthService struct{ db *gorm.DB }

func NewAuthService(db *gorm.DB) *AuthService { return &AuthService{db: db} }

// Register creates an account at the default water level. The unique indexes
// on username and email are authoritative: the insert goes first and a
// duplicate-key rejection is classified back to a distinct error, so two
// concurrent signups for the same name cannot both slip past a pre-check.
func (s *AuthService) Register(fullName, email, username, password string) error {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{
		FullName:   fullName,
		Email:      email,
		Username:   username,
		Password:   hashed,
		WaterLevel: models.DefaultWaterLevel,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.classifyDuplicate(username)
		}
		return err
	}
	return nil
}

// classifyDuplicate reports which unique field a rejected insert collided on.
// Username wins when both collide.
func (s *AuthService) classifyDuplicate(username string) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err == nil && count > 0 {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}

func (s *AuthService) Authenticate(username, password string) (string, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", ErrInvalidCredentials
	}

	return utils.GenerateJWT(user.ID, user.Username)
}

func (s *AuthService) Profile(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
