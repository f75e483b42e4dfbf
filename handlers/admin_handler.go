package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"counselcore/database"
	"counselcore/models"
)

// ConfirmPurchasePayment is the manual payment attestation step: an admin
// matches an incoming bank transfer against the purchase reference code and
// confirms it here. There is no automated capture flow.
func ConfirmPurchasePayment(c *fiber.Ctx) error {
	purchaseID, err := uuid.Parse(c.Params("purchaseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase ID format"})
	}

	purchase, err := purchaseSvc.ConfirmPayment(purchaseID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "Payment confirmed. Sessions are now awaiting counselor confirmation.",
		"purchase": purchase,
	})
}

func ListPendingPayments(c *fiber.Ctx) error {
	var purchases []models.PackagePurchase
	database.DB.
		Preload("Client").
		Where("status = ?", models.PurchaseStatusPendingPayment).
		Order("created_at asc").
		Find(&purchases)

	return c.JSON(purchases)
}

func RunPurchaseSettlement(c *fiber.Ctx) error {
	purchaseID, err := uuid.Parse(c.Params("purchaseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase ID format"})
	}

	result, err := settlementSvc.SettlePurchase(purchaseID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}

func RunSettlementBatch(c *fiber.Ctx) error {
	results, err := settlementSvc.SettleBatch()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Settlement batch failed"})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Settlement batch finished: %d purchase(s) settled.", len(results)),
		"results": results,
	})
}

type DashboardAnalyticsResponse struct {
	TotalClients        int64                    `json:"total_clients"`
	TotalCounselors     int64                    `json:"total_counselors"`
	TotalRevenue        int64                    `json:"total_revenue"`
	TotalRefunded       int64                    `json:"total_refunded"`
	TotalSettled        int64                    `json:"total_settled"`
	PurchasesLast30Days int64                    `json:"purchases_last_30_days"`
	RecentPurchases     []models.PackagePurchase `json:"recent_purchases"`
}

func GetDashboardAnalytics(c *fiber.Ctx) error {
	var response DashboardAnalyticsResponse

	database.DB.Model(&models.User{}).Where("role = ?", models.RoleClient).Count(&response.TotalClients)
	database.DB.Model(&models.Counselor{}).Where("status = ?", "active").Count(&response.TotalCounselors)

	database.DB.Model(&models.PackagePurchase{}).
		Where("status <> ?", models.PurchaseStatusPendingPayment).
		Select("COALESCE(SUM(final_fee), 0)").Row().Scan(&response.TotalRevenue)
	database.DB.Model(&models.PackagePurchase{}).
		Select("COALESCE(SUM(refund_amount), 0)").Row().Scan(&response.TotalRefunded)
	database.DB.Model(&models.PackagePurchase{}).
		Select("COALESCE(SUM(settlement_amount), 0)").Row().Scan(&response.TotalSettled)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&models.PackagePurchase{}).Where("created_at > ?", thirtyDaysAgo).Count(&response.PurchasesLast30Days)

	database.DB.Order("created_at desc").Limit(5).Preload("Client").Preload("Counselor.User").Find(&response.RecentPurchases)

	return c.JSON(response)
}

func GenerateTransactionReport(c *fiber.Ctx) error {
	startDateStr := c.Query("start_date", time.Now().AddDate(0, -1, 0).Format("2006-01-02"))
	endDateStr := c.Query("end_date", time.Now().Format("2006-01-02"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_date format. Use YYYY-MM-DD."})
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_date format. Use YYYY-MM-DD."})
	}
	endDate = endDate.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	var purchases []models.PackagePurchase
	database.DB.
		Preload("Client").
		Where("status <> ? AND created_at BETWEEN ? AND ?", models.PurchaseStatusPendingPayment, startDate, endDate).
		Order("created_at desc").
		Find(&purchases)

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)

	headers := []string{"Reference", "Date", "Client Name", "Type", "Sessions", "Final Fee", "Refunded", "Settled", "Status"}
	if err := w.Write(headers); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV header"})
	}

	for _, p := range purchases {
		row := []string{
			p.ReferenceCode,
			p.CreatedAt.Format("2006-01-02 15:04"),
			p.Client.FullName,
			p.SessionType,
			strconv.Itoa(p.TotalSessions),
			strconv.FormatInt(p.FinalFee, 10),
			strconv.FormatInt(p.RefundAmount, 10),
			strconv.FormatInt(p.SettlementAmount, 10),
			p.Status,
		}
		if err := w.Write(row); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV row"})
		}
	}
	w.Flush()

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s_to_%s.csv\"", startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	return c.Send(b.Bytes())
}

func AdminGetPurchases(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	status := c.Query("status")
	offset := (page - 1) * limit

	var purchases []models.PackagePurchase
	var total int64

	query := database.DB.Model(&models.PackagePurchase{})
	countQuery := database.DB.Model(&models.PackagePurchase{})

	if status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	countQuery.Count(&total)
	query.Order("created_at desc").Offset(offset).Limit(limit).
		Preload("Client").Preload("Counselor.User").Preload("Sessions").
		Find(&purchases)

	return c.JSON(fiber.Map{
		"data": purchases,
		"meta": fiber.Map{
			"total":     total,
			"page":      page,
			"last_page": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ListOverdueSessions surfaces confirmed sessions whose scheduled time has
// passed without completion. These are no-show candidates; committing the
// no_show state stays an explicit counselor/admin action.
func ListOverdueSessions(c *fiber.Ctx) error {
	var sessions []models.SessionInstance
	database.DB.
		Where("status = ? AND scheduled_at < ?", models.SessionStatusConfirmed, time.Now()).
		Order("scheduled_at asc").
		Preload("Purchase").
		Find(&sessions)

	return c.JSON(sessions)
}
