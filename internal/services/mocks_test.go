package services_test

import (
	"github.com/stretchr/testify/mock"

	"aralis/internal/models"
)

// mockNotifier implements every notifier interface the services use.
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) OrderConfirmation(order *models.Order) error {
	return m.Called(order).Error(0)
}

func (m *mockNotifier) OrderAlert(order *models.Order) error {
	return m.Called(order).Error(0)
}

func (m *mockNotifier) OrderStatusChanged(order *models.Order) error {
	return m.Called(order).Error(0)
}

func (m *mockNotifier) PasswordReset(user *models.User, token string) error {
	return m.Called(user, token).Error(0)
}

func (m *mockNotifier) PasswordChanged(user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *mockNotifier) CustomizationAck(req *models.CustomizationRequest) error {
	return m.Called(req).Error(0)
}

func (m *mockNotifier) CustomizationAlert(req *models.CustomizationRequest) error {
	return m.Called(req).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(exchange, routingKey string, payload interface{}) error {
	return m.Called(exchange, routingKey, payload).Error(0)
}

// MockOrderRepository is a testify mock of repositories.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetAll(status models.OrderStatus) ([]models.Order, error) {
	args := m.Called(status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(number string) (*models.Order, error) {
	args := m.Called(number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) ExistsByNumber(number string) (bool, error) {
	args := m.Called(number)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) CountByNumberPrefix(prefix string) (int64, error) {
	args := m.Called(prefix)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Create(order *models.Order) error {
	return m.Called(order).Error(0)
}

func (m *MockOrderRepository) UpdateStatus(number string, status models.OrderStatus) error {
	return m.Called(number, status).Error(0)
}

func (m *MockOrderRepository) Stats() (*models.OrderStats, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderStats), args.Error(1)
}

// sequence returns a random source that yields values in order and then repeats the last one.
func sequence(values ...int) func(int) int {
	i := 0
	return func(int) int {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}
