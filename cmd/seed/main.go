package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brandlift/w9-backend/config"
	"github.com/brandlift/w9-backend/internal/app/model"
	"github.com/brandlift/w9-backend/internal/app/repository"
	"github.com/brandlift/w9-backend/internal/db"
	"github.com/brandlift/w9-backend/pkg/util"
)

// Seeds payee accounts from an XLSX export (columns: email, name,
// password) and always ensures an admin account exists.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	userRepo := repository.NewUserRepository(db.GetDB())

	if err := seedAdmin(userRepo); err != nil {
		log.Fatal("Failed to seed admin account:", err)
	}

	if len(os.Args) < 2 {
		fmt.Println("No XLSX file given; only the admin account was seeded.")
		fmt.Println("Usage: go run cmd/seed/main.go <payees.xlsx>")
		return
	}

	filePath := os.Args[1]
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	users, err := readPayeesFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total payees to import: %d\n", len(users))
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	imported := 0
	for i := range users {
		if err := userRepo.Create(&users[i]); err != nil {
			fmt.Printf("Skipping %s: %v\n", users[i].Email, err)
			continue
		}
		imported++
	}

	fmt.Printf("Import completed: %d of %d payees created\n", imported, len(users))
}

func seedAdmin(userRepo repository.UserRepository) error {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	if _, err := userRepo.FindByEmail(email); err == nil {
		fmt.Printf("Admin account %s already exists\n", email)
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set to create the admin account")
	}
	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}
	fmt.Printf("Admin account %s created\n", email)
	return nil
}

func readPayeesFromXLSX(filePath string) ([]model.User, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("XLSX file has no data rows")
	}

	var users []model.User
	for i, row := range rows[1:] {
		if len(row) < 3 {
			fmt.Printf("Skipping row %d: expected email, name, password\n", i+2)
			continue
		}
		email := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])
		password := strings.TrimSpace(row[2])
		if email == "" || name == "" || password == "" {
			fmt.Printf("Skipping row %d: empty field\n", i+2)
			continue
		}

		hash, err := util.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", email, err)
		}
		users = append(users, model.User{
			Email:        email,
			PasswordHash: hash,
			Name:         name,
			Role:         model.RolePayee,
		})
	}
	return users, nil
}
