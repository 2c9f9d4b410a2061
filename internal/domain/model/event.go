package model

// Event is an inbound user action, decoded once at the transport boundary.
type Event interface {
	isEvent()
	Name() string
}

type SelectCourse struct{ CourseID string }

type ChooseBuy struct{ CourseID string }

type ChooseMethod struct {
	CourseID string
	Method   PaymentMethod
}

// RequestTrxCapture is the explicit "submit transaction id" action.
type RequestTrxCapture struct{ CourseID string }

type SubmitTrxID struct{ Raw string }

type SubmitProof struct {
	PhotoRef string
	Caption  string
}

type Cancel struct{}

func (SelectCourse) isEvent()      {}
func (ChooseBuy) isEvent()         {}
func (ChooseMethod) isEvent()      {}
func (RequestTrxCapture) isEvent() {}
func (SubmitTrxID) isEvent()       {}
func (SubmitProof) isEvent()       {}
func (Cancel) isEvent()            {}

func (SelectCourse) Name() string      { return "select_course" }
func (ChooseBuy) Name() string         { return "choose_buy" }
func (ChooseMethod) Name() string      { return "choose_method" }
func (RequestTrxCapture) Name() string { return "request_trx_capture" }
func (SubmitTrxID) Name() string       { return "submit_trx_id" }
func (SubmitProof) Name() string       { return "submit_proof" }
func (Cancel) Name() string            { return "cancel" }
