package reservation

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentCanceled  PaymentStatus = "Canceled"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCanceled:
		return true
	default:
		return false
	}
}

type BookingStatus string

// CheckedIn, CheckedOut and NoShow are set by front-desk operations, never by payments.
const (
	BookingPending    BookingStatus = "Pending"
	BookingConfirmed  BookingStatus = "Confirmed"
	BookingCancelled  BookingStatus = "Cancelled"
	BookingCheckedIn  BookingStatus = "CheckedIn"
	BookingCheckedOut BookingStatus = "CheckedOut"
	BookingNoShow     BookingStatus = "NoShow"
)

func (s BookingStatus) String() string {
	return string(s)
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCheckedIn, BookingCheckedOut, BookingNoShow:
		return true
	default:
		return false
	}
}

// State is the joint (payment, booking) status pair. The two columns always move together.
type State struct {
	Payment PaymentStatus
	Booking BookingStatus
}

var (
	StatePending   = State{Payment: PaymentPending, Booking: BookingPending}
	StatePaid      = State{Payment: PaymentCompleted, Booking: BookingConfirmed}
	StateFailed    = State{Payment: PaymentFailed, Booking: BookingCancelled}
	StateCancelled = State{Payment: PaymentCanceled, Booking: BookingCancelled}
)

func (s State) String() string {
	return string(s.Payment) + "/" + string(s.Booking)
}

type Transition string

const (
	MarkPaid      Transition = "mark_paid"
	MarkFailed    Transition = "mark_failed"
	MarkCancelled Transition = "mark_cancelled"
)

func (t Transition) String() string {
	return string(t)
}

// Target returns the state a transition leads to.
func (t Transition) Target() (State, bool) {
	switch t {
	case MarkPaid:
		return StatePaid, true
	case MarkFailed:
		return StateFailed, true
	case MarkCancelled:
		return StateCancelled, true
	default:
		return State{}, false
	}
}
