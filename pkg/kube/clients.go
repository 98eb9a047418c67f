package kube

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Clients bundles the typed and dynamic clients of one cluster context.
type Clients struct {
	Clientset kubernetes.Interface
	Dynamic   dynamic.Interface
	// Namespace is the context's default namespace.
	Namespace string
	Logger    *log.Logger
}

// NewClients loads kubeconfig (the default loading rules when empty) and
// builds clients for contextName (the current context when empty).
func NewClients(kubeconfig, contextName string) (*Clients, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}
	cc := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides)

	config, err := cc.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("error building kubeconfig: %w", err)
	}
	ns, _, err := cc.Namespace()
	if err != nil {
		return nil, fmt.Errorf("error reading namespace: %w", err)
	}
	c, err := NewClientsForConfig(config)
	if err != nil {
		return nil, err
	}
	c.Namespace = ns
	return c, nil
}

// NewClientsForConfig builds clients from a REST config.
func NewClientsForConfig(config *rest.Config) (*Clients, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("error creating clientset: %w", err)
	}
	dyn, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("error creating dynamic client: %w", err)
	}
	return &Clients{Clientset: clientset, Dynamic: dyn, Namespace: "default", Logger: log.New(io.Discard)}, nil
}

// NewClientsFrom wraps existing clients, typically fakes in tests.
func NewClientsFrom(clientset kubernetes.Interface, dyn dynamic.Interface) *Clients {
	return &Clients{Clientset: clientset, Dynamic: dyn, Namespace: "default", Logger: log.New(io.Discard)}
}

// Log returns the clients' logger, never nil.
func (c *Clients) Log() *log.Logger {
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c.Logger
}
