package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedNakshatras = []string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira",
	"Punarvasu", "Pushya", "Magha", "Hasta", "Chitra",
}

// SeedTestData resets the database and populates it with demo members.
//
// Behavior:
//  1. Clears existing data in members, profile_accesses and share_links.
//  2. Creates 20 members (10 male, 10 female) with hashed passwords, three
//     starting credits and a few Verified rows for the public teaser list.
//  3. Unlocks a handful of cross-gender pairs so browse lists show a mix of
//     locked and unlocked cards.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"profile_accesses", "share_links", "members"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE members AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE profile_accesses AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE share_links AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('members', 'profile_accesses', 'share_links')")
	}

	log.Println("Cleared existing data")

	// --- Seed members (10 male, 10 female) ---
	memberIDs := make([]string, 0, 20)
	genders := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender := "Male"
		if i > 10 {
			gender = "Female"
		}

		status := "New"
		if i%3 == 0 {
			status = "Verified"
		}

		member := Member{
			MemberID:     "PENDING",
			Name:         fmt.Sprintf("Demo Member %d", i),
			Email:        fmt.Sprintf("member%d@example.com", i),
			Phone:        fmt.Sprintf("+91-90000000%02d", i),
			PasswordHash: string(hash),
			Gender:       gender,
			DOB:          fmt.Sprintf("%d-06-%02d", 1988+r.Intn(12), 1+r.Intn(28)),
			City:         "Chennai",
			Occupation:   "Software Engineer",
			Status:       status,
			Active:       true,
			Credits:      3,
			ExtraData: JSONMap{
				"nakshatra": seedNakshatras[r.Intn(len(seedNakshatras))],
				"padham":    fmt.Sprintf("%d", 1+r.Intn(4)),
				"hasPhoto":  i%2 == 0,
			},
			CreatedAt: time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}

		if err := db.Create(&member).Error; err != nil {
			return fmt.Errorf("failed to seed member: %w", err)
		}
		member.MemberID = fmt.Sprintf("VV-%06d", member.ID)
		if err := db.Model(&member).Update("member_id", member.MemberID).Error; err != nil {
			return fmt.Errorf("failed to assign member id: %w", err)
		}
		memberIDs = append(memberIDs, member.MemberID)
		genders = append(genders, gender)
	}
	log.Println("Seeded 20 members.")

	// --- Seed a few unlocks (cross-gender only) ---
	for i := 0; i < 10; i++ {
		viewer := r.Intn(len(memberIDs))
		target := r.Intn(len(memberIDs))
		if viewer == target || genders[viewer] == genders[target] {
			continue
		}
		access := ProfileAccess{
			MemberID:     memberIDs[viewer],
			ProfileID:    memberIDs[target],
			CreditsSpent: 1,
		}
		// ignore duplicate pairs from the random picks
		_ = db.Create(&access).Error
	}

	return nil
}
