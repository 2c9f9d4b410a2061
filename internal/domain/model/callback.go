package model

import (
	"strconv"
	"strings"

	"telegram-course-bot/internal/domain"
)

// Callback actions carried in inline button data.
const (
	ActionMenu    = "menu"
	ActionCourses = "courses"
	ActionCourse  = "course"
	ActionBuy     = "buy"
	ActionMethod  = "method"
	ActionTrx     = "trx"
	ActionCancel  = "cancel"
	ActionApprove = "approve"
)

// KnownAction reports whether action is one of the callback actions above.
func KnownAction(action string) bool {
	switch action {
	case ActionMenu, ActionCourses, ActionCourse, ActionBuy, ActionMethod, ActionTrx, ActionCancel, ActionApprove:
		return true
	}
	return false
}

// Callback is decoded inline button data, e.g. "method:bkash:hsc2027_ict".
type Callback struct {
	Action   string
	CourseID string
	Method   PaymentMethod
	UserID   int64
}

func MenuCallback() string    { return ActionMenu }
func CoursesCallback() string { return ActionCourses }

func CourseCallback(courseID string) string { return ActionCourse + ":" + courseID }
func BuyCallback(courseID string) string    { return ActionBuy + ":" + courseID }
func TrxCallback(courseID string) string    { return ActionTrx + ":" + courseID }
func CancelCallback(courseID string) string { return ActionCancel + ":" + courseID }

func MethodCallback(m PaymentMethod, courseID string) string {
	return ActionMethod + ":" + string(m) + ":" + courseID
}

func ApproveCallback(userID int64, courseID string) string {
	return ActionApprove + ":" + strconv.FormatInt(userID, 10) + ":" + courseID
}

// ParseCallback decodes button data. Course ids may not contain ':'.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	cb := Callback{Action: parts[0]}
	switch cb.Action {
	case ActionMenu, ActionCourses:
		if len(parts) != 1 {
			return Callback{}, domain.ErrInvalidFormat
		}
		return cb, nil
	case ActionCourse, ActionBuy, ActionTrx, ActionCancel:
		if len(parts) != 2 || parts[1] == "" {
			return Callback{}, domain.ErrInvalidFormat
		}
		cb.CourseID = parts[1]
		return cb, nil
	case ActionMethod:
		if len(parts) != 3 || parts[2] == "" {
			return Callback{}, domain.ErrInvalidFormat
		}
		m, err := ParsePaymentMethod(parts[1])
		if err != nil {
			return Callback{}, domain.ErrInvalidFormat
		}
		cb.Method, cb.CourseID = m, parts[2]
		return cb, nil
	case ActionApprove:
		if len(parts) != 3 || parts[2] == "" {
			return Callback{}, domain.ErrInvalidFormat
		}
		uid, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || uid <= 0 {
			return Callback{}, domain.ErrInvalidFormat
		}
		cb.UserID, cb.CourseID = uid, parts[2]
		return cb, nil
	}
	return Callback{}, domain.ErrInvalidFormat
}

// Event maps a user-facing callback to the purchase event it triggers.
// Navigation and admin callbacks have no event.
func (c Callback) Event() (Event, bool) {
	switch c.Action {
	case ActionCourse:
		return SelectCourse{CourseID: c.CourseID}, true
	case ActionBuy:
		return ChooseBuy{CourseID: c.CourseID}, true
	case ActionMethod:
		return ChooseMethod{CourseID: c.CourseID, Method: c.Method}, true
	case ActionTrx:
		return RequestTrxCapture{CourseID: c.CourseID}, true
	case ActionCancel:
		return Cancel{}, true
	}
	return nil, false
}
