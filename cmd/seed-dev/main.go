// seed-dev migrates a development database and fills it with a small shop:
// two technicians, two suppliers, a handful of parts, two trucks and an open job.
// Rows are matched by natural key, so running it twice changes nothing.
//
// Usage:
//
//	DB_PATH=dev.db go run ./cmd/seed-dev
//	go run ./cmd/seed-dev -stock-truck=false
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/models"
	"github.com/wiredpart/parts_backend/utils"
	"gorm.io/gorm"
)

type seedPart struct {
	number string
	desc   string
	cat    string // one of the stock categories
	qty    int
	min    int
	max    int
	cost   string // as printed on the supplier price sheet
}

var (
	seedUsers = []models.NewUser{
		{Username: "dana", DisplayName: "Dana Foreman"},
		{Username: "eli", DisplayName: "Eli Apprentice"},
	}
	seedSuppliers = []models.NewSupplier{
		{Name: "Graybar", ContactName: "Counter desk", Email: "counter@graybar.example"},
		{Name: "City Electric Supply", Phone: "555-0142"},
	}
	seedParts = []seedPart{
		{"BRK-1P20", "20A single pole breaker", "Breakers & Fuses", 40, 10, 60, "$8.95"},
		{"BRK-2P30", "30A double pole breaker", "Breakers & Fuses", 12, 4, 20, "$21.40"},
		{"GFCI-20", "20A GFCI receptacle", "Switches & Outlets", 25, 10, 40, "$17.25"},
		{"WIRE-12-2", "12/2 NM-B 250ft", "Wire & Cable", 6, 4, 10, "$118.00"},
		{"BOX-4SQ", "4in square box", "Boxes & Enclosures", 3, 20, 0, "$2.10"},
		{"EMT-075", "3/4in EMT 10ft", "Conduit & Fittings", 50, 25, 100, "$7.80"},
	}
)

func main() {
	stockTruck := flag.Bool("stock-truck", true, "Send and receive a starter load on truck T-100 when it is first created")
	flag.Parse()

	settings := config.LoadSettings()
	logger := config.NewLogger(settings.LogLevel)
	config.ReportSettingsWarnings(logger, settings)

	db, err := config.ConnectDatabase(settings, logger, 5)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = config.CloseDatabase(db) }()
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	store := models.NewStore(db, settings, nil, logger)
	if err := seed(context.Background(), store, db, logger, *stockTruck); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("seed complete")
}

func seed(ctx context.Context, store *models.Store, db *gorm.DB, logger *logrus.Logger, stockTruck bool) error {
	var foreman *models.User
	for i := range seedUsers {
		user, err := findOrCreate(db, "username", seedUsers[i].Username, func() (*models.User, error) {
			return store.CreateUser(ctx, &seedUsers[i])
		})
		if err != nil {
			return err
		}
		if foreman == nil {
			foreman = user
		}
	}
	ctx = utils.SetUserIdInContext(ctx, foreman.ID)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	for i := range seedSuppliers {
		if _, err := findOrCreate(db, "name", seedSuppliers[i].Name, func() (*models.Supplier, error) {
			return store.CreateSupplier(ctx, &seedSuppliers[i])
		}); err != nil {
			return err
		}
	}

	parts := make(map[string]*models.Part, len(seedParts))
	for _, p := range seedParts {
		cost, err := utils.ParseMoney(p.cost)
		if err != nil {
			return fmt.Errorf("part %s: %w", p.number, err)
		}
		category, err := store.GetCategoryByName(ctx, p.cat)
		if err != nil {
			return fmt.Errorf("part %s: %w", p.number, err)
		}
		part, err := findOrCreate(db, "part_number", p.number, func() (*models.Part, error) {
			return store.CreatePart(ctx, &models.NewPart{
				PartNumber:  p.number,
				Description: p.desc,
				CategoryId:  &category.ID,
				Quantity:    p.qty,
				MinQuantity: p.min,
				MaxQuantity: p.max,
				UnitCost:    cost,
			})
		})
		if err != nil {
			return err
		}
		parts[p.number] = part
	}

	var truckCreated bool
	truck, err := findOrCreate(db, "truck_number", "T-100", func() (*models.Truck, error) {
		truckCreated = true
		return store.CreateTruck(ctx, &models.NewTruck{TruckNumber: "T-100", Name: "Service van", AssignedUserId: &foreman.ID})
	})
	if err != nil {
		return err
	}
	if _, err := findOrCreate(db, "truck_number", "T-200", func() (*models.Truck, error) {
		return store.CreateTruck(ctx, &models.NewTruck{TruckNumber: "T-200", Name: "Spare box truck"})
	}); err != nil {
		return err
	}
	if _, err := findOrCreate(db, "job_number", "J-1001", func() (*models.Job, error) {
		return store.CreateJob(ctx, &models.NewJob{
			JobNumber: "J-1001", Name: "Panel replacement", CustomerName: "Harbor Cafe", Address: "12 Pier Rd",
		})
	}); err != nil {
		return err
	}

	if truckCreated && stockTruck {
		load := map[string]int{"BRK-1P20": 6, "GFCI-20": 4, "EMT-075": 10}
		for number, qty := range load {
			transfer, err := store.CreateTransfer(ctx, &models.NewTransfer{TruckId: truck.ID, PartId: parts[number].ID, Quantity: qty})
			if err != nil {
				return err
			}
			if _, err := store.ReceiveTransfer(ctx, transfer.ID, nil); err != nil {
				return err
			}
		}
		logger.WithFields(logrus.Fields{"truck": truck.TruckNumber}).Info("starter load received")
	}
	return nil
}

// findOrCreate returns the row whose column equals value, creating it when absent.
func findOrCreate[T any](db *gorm.DB, column string, value string, create func() (*T, error)) (*T, error) {
	var row T
	res := db.Where(column+" = ?", value).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return &row, nil
	}
	return create()
}
