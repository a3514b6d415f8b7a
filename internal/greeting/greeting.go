package greeting

// DoctorGreeting is the message every Doctor service returns.
const DoctorGreeting = "Hello from Doctor Shubham"

// Greeter is implemented by components that produce a greeting.
// Consumers take a Greeter so tests can substitute their own.
type Greeter interface {
	SayHello() string
}

// DoctorService is the default Greeter. It holds no state and is safe for
// concurrent use.
type DoctorService struct{}

// NewDoctorService returns a new DoctorService.
func NewDoctorService() *DoctorService {
	return &DoctorService{}
}

// SayHello returns DoctorGreeting.
func (s *DoctorService) SayHello() string {
	return DoctorGreeting
}
