package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// Creates (or reuses) a local account and prints a bearer token signed with
// JWT_SECRET. Tokens are normally issued by the identity provider; this is
// for local testing only.
func main() {
	role := flag.String("role", models.RoleAdmin, "User role (admin or user)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *role != models.RoleAdmin && *role != models.RoleUser {
		log.Fatalf("Unsupported role %q", *role)
	}

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	db, err := database.InitDatabase(database.FromAppConfig(conf))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	user, err := getOrCreateUser(db, *role)
	if err != nil {
		log.Fatal("Failed to get user for role:", err)
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  strconv.FormatUint(uint64(user.ID), 10),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(*ttl).Unix(),
	}).SignedString([]byte(conf.JWTSecret))
	if err != nil {
		log.Fatal("Failed to sign token:", err)
	}

	fmt.Printf("User: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
	fmt.Printf("Token: %s\n", token)
	fmt.Println("\nUse it for testing:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost:%d/api/users/me\n", token, conf.Port)
}

// getOrCreateUser gets or creates a user with the specified role
func getOrCreateUser(db *gorm.DB, role string) (models.User, error) {
	var user models.User
	email := fmt.Sprintf("%s@foodgram.local", role)

	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		fmt.Printf("Found existing user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	user = models.User{
		Email:     email,
		Username:  "dev-" + role,
		FirstName: "Dev",
		LastName:  role,
		Password:  "dev-password-" + role,
		Role:      role,
	}
	if err := user.HashPassword(); err != nil {
		return user, err
	}
	if err := db.Create(&user).Error; err != nil {
		return user, err
	}

	fmt.Printf("Created new user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
	return user, nil
}
