// Package notify delivers system notifications and in-app feedback.
package notify

import (
	"errors"
	"fmt"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"go.uber.org/zap"
)

// ErrNotificationsDisabled is returned when the user turned notifications
// off or the host gave us no way to send them.
var ErrNotificationsDisabled = errors.New("notifications disabled")

const (
	AlarmTitle       = "Medication Reminder"
	AppointmentTitle = "Doctor Appointment Reminder"
)

// Sender is the part of fyne.App that posts notifications
type Sender interface {
	SendNotification(n *fyne.Notification)
}

// SystemNotifier posts dose and appointment notifications through the
// desktop notification center.
type SystemNotifier struct {
	sender  Sender
	enabled atomic.Bool
	log     *zap.Logger
}

func NewSystemNotifier(sender Sender) *SystemNotifier {
	n := &SystemNotifier{
		sender: sender,
		log:    logger.GetLoggerWith(logger.NameNotify),
	}
	n.enabled.Store(true)
	return n
}

// SetEnabled follows the notificationsEnabled setting
func (n *SystemNotifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

func (n *SystemNotifier) Enabled() bool {
	return n.sender != nil && n.enabled.Load()
}

// Notify posts the dose notification. The handle is the alarm id.
func (n *SystemNotifier) Notify(snap models.AlarmSnapshot) (models.NotificationHandle, error) {
	if !n.Enabled() {
		return "", ErrNotificationsDisabled
	}
	n.sender.SendNotification(fyne.NewNotification(AlarmTitle, AlarmBody(snap)))
	n.log.Debug("Sent dose notification", zap.String("alarm_id", snap.AlarmID))
	return models.NotificationHandle(snap.AlarmID), nil
}

// Cancel is best effort: the fyne notification center cannot retract a
// delivered notification, so this only records it.
func (n *SystemNotifier) Cancel(handle models.NotificationHandle) {
	n.log.Debug("Dose notification dismissed", zap.String("alarm_id", string(handle)))
}

// RemindAppointment posts the one-hour appointment reminder
func (n *SystemNotifier) RemindAppointment(a models.Appointment) error {
	if !n.Enabled() {
		return ErrNotificationsDisabled
	}
	n.sender.SendNotification(fyne.NewNotification(AppointmentTitle, AppointmentBody(a)))
	n.log.Info("Sent appointment reminder",
		zap.String("appointment_id", a.ID),
		zap.Time("at", a.At))
	return nil
}

func AlarmBody(snap models.AlarmSnapshot) string {
	if snap.Dosage == "" {
		return fmt.Sprintf("Time to take %s", snap.Name)
	}
	return fmt.Sprintf("Time to take %s (%s)", snap.Name, snap.Dosage)
}

func AppointmentBody(a models.Appointment) string {
	return fmt.Sprintf("You have an appointment with %s in 1 hour", a.DoctorName)
}
