package client

// LoginRoute is the route of the login surface
const LoginRoute = "/login"

// Navigator moves the user to the login surface after the session ended.
// returnPath is the path of the request that could not be completed.
type Navigator interface {
	ToLogin(returnPath string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(returnPath string)

func (f NavigatorFunc) ToLogin(returnPath string) { f(returnPath) }

var noopNavigator = NavigatorFunc(func(string) {})
