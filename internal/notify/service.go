package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"leadflow/internal/alert"
	"leadflow/internal/deposit"
	"leadflow/internal/lead"
	"leadflow/internal/logger"
	"leadflow/internal/metrics"
)

const (
	mailQueue     = "notifications"
	failedQueue   = "notifications:failed"
	accrualQueue  = "payout_accruals"
	alertThrottle = 24 * time.Hour
	maxTries      = 3
	retryBackoff  = 5 * time.Second
	popTimeout    = 2 * time.Second
)

type MailJob struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// PayoutAccrual is the event drained by the external payout system when a
// lead is validated.
type PayoutAccrual struct {
	LeadID                       string    `json:"lead_id"`
	CampaignID                   string    `json:"campaign_id"`
	InfluencerID                 string    `json:"influencer_id"`
	InfluencerCommissionCentimes int64     `json:"influencer_commission_centimes"`
	AccruedAt                    time.Time `json:"accrued_at"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	alertsTo string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(rdb *redis.Client, fromEmail, fromName, alertsTo, smtpHost, smtpPort, smtpUser, smtpPass string) *Service {
	return &Service{
		redis:    rdb,
		from:     fromEmail,
		fromName: fromName,
		alertsTo: alertsTo,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

// PublishPayoutAccrual queues the influencer's share for the payout system.
func (s *Service) PublishPayoutAccrual(ctx context.Context, l *lead.Lead) error {
	event := PayoutAccrual{
		LeadID:                       l.ID.String(),
		CampaignID:                   l.CampaignID.String(),
		InfluencerID:                 l.InfluencerID.String(),
		InfluencerCommissionCentimes: l.InfluencerCommissionCentimes,
		AccruedAt:                    time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, accrualQueue, data).Err(); err != nil {
		metrics.RecordNotification("payout_accrual", "failed")
		logger.Errorf("Failed to queue payout accrual for lead %s: %v", l.ID, err)
		return err
	}

	metrics.RecordNotification("payout_accrual", "queued")
	logger.Infof("Payout accrual queued for lead %s (%d centimes)", l.ID, l.InfluencerCommissionCentimes)
	return nil
}

// QueueLowBalanceAlert mails a deposit's tier warning. At most one alert per
// deposit goes out per 24h; further calls are dropped until the throttle key
// expires.
func (s *Service) QueueLowBalanceAlert(ctx context.Context, dep *deposit.Deposit, tier alert.Tier) error {
	throttleKey := fmt.Sprintf("alerts:deposit:%s", dep.ID)
	set, err := s.redis.SetNX(ctx, throttleKey, string(tier), alertThrottle).Result()
	if err != nil {
		return err
	}
	if !set {
		logger.Debugf("Alert for deposit %s throttled", dep.ID)
		return nil
	}

	metrics.RecordAlert(string(tier))

	subject := fmt.Sprintf("Deposit alert: %s", tier)
	body := fmt.Sprintf(`Hello,

The deposit %s is at %.1f%% of its initial amount (tier %s).

Current balance: %.2f dhs
Reserved:        %.2f dhs
Available:       %.2f dhs

Recharge to keep receiving leads.

- LeadFlow`,
		dep.ID, dep.Percentage(), tier,
		float64(dep.CurrentBalanceCentimes)/100,
		float64(dep.ReservedAmountCentimes)/100,
		float64(dep.AvailableCentimes())/100)

	return s.queueMail(ctx, MailJob{
		Type:    "low_balance_alert",
		To:      s.alertsTo,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	})
}

func (s *Service) queueMail(ctx context.Context, job MailJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, mailQueue, data).Err(); err != nil {
		metrics.RecordNotification(job.Type, "failed")
		logger.Errorf("Failed to queue %s notification: %v", job.Type, err)
		return err
	}

	metrics.RecordNotification(job.Type, "queued")
	logger.Infof("Notification queued: %s to %s", job.Subject, job.To)
	return nil
}

// Start drains the mail queue until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, popTimeout, mailQueue).Result()
	if err != nil {
		return
	}

	var job MailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send %s notification to %s: %v", job.Type, job.To, err)

		if job.Tries < maxTries {
			time.Sleep(retryBackoff)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), mailQueue, data)
			logger.Infof("Retrying notification to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			metrics.RecordNotification(job.Type, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordNotification(job.Type, "sent")
	logger.Infof("Notification sent to %s", job.To)
}

func (s *Service) sendNow(job MailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job MailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueue, data)
	logger.Errorf("Notification moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, mailQueue).Result()
	return length
}
