package mailbox

import (
	"strings"

	"github.com/nhle/labdesk/internal/model"
)

type rule struct {
	words    []string
	typ      model.NotificationType
	category model.Category
}

// rules is checked in order; cancellations come before appointments so a
// "cancelled appointment" subject is a warning.
var rules = []rule{
	{[]string{"cancel"}, model.NotificationWarning, model.CategoryAppointment},
	{[]string{"result"}, model.NotificationSuccess, model.CategoryResults},
	{[]string{"appointment", "booking", "schedule"}, model.NotificationInfo, model.CategoryAppointment},
	{[]string{"payment", "receipt", "invoice", "billing"}, model.NotificationInfo, model.CategoryPayment},
	{[]string{"certificate"}, model.NotificationInfo, model.CategoryGeneral},
}

// Classify maps an email subject to a notification type and category.
func Classify(subject string) (model.NotificationType, model.Category) {
	s := strings.ToLower(subject)
	for _, r := range rules {
		for _, w := range r.words {
			if strings.Contains(s, w) {
				return r.typ, r.category
			}
		}
	}
	return model.NotificationInfo, model.CategoryGeneral
}
