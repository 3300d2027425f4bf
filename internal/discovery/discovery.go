// Package discovery locates the AdminService base URL through Consul when no
// explicit server address is configured.
package discovery

import (
	"fmt"
	"log"
	"time"

	consul "github.com/hashicorp/consul/api"
)

const DefaultServiceName = "adminservice"

type ServiceDiscovery struct {
	consulAddr  string
	serviceName string
	client      *consul.Client
}

func NewServiceDiscovery(consulAddr, serviceName string) (*ServiceDiscovery, error) {
	config := consul.DefaultConfig()
	config.Address = consulAddr

	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	return &ServiceDiscovery{
		consulAddr:  consulAddr,
		serviceName: serviceName,
		client:      client,
	}, nil
}

// DiscoverAdminService returns the base URL of a healthy AdminService
// instance.
func (sd *ServiceDiscovery) DiscoverAdminService() (string, error) {
	services, _, err := sd.client.Health().Service(sd.serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("query consul: %w", err)
	}

	if len(services) == 0 {
		return "", fmt.Errorf("no healthy %s services found", sd.serviceName)
	}

	service := services[0]
	addr := service.Service.Address
	if addr == "" {
		addr = service.Node.Address
	}

	return fmt.Sprintf("http://%s:%d", addr, service.Service.Port), nil
}

// WatchAdminService emits the discovered base URL whenever it changes.
func (sd *ServiceDiscovery) WatchAdminService() <-chan string {
	urlChan := make(chan string, 1)

	go func() {
		var lastURL string
		for {
			baseURL, err := sd.DiscoverAdminService()
			if err != nil {
				log.Printf("Discovery failed: %v", err)
				time.Sleep(5 * time.Second)
				continue
			}

			if baseURL != lastURL {
				log.Printf("Discovered AdminService at: %s", baseURL)
				urlChan <- baseURL
				lastURL = baseURL
			}

			time.Sleep(10 * time.Second)
		}
	}()

	return urlChan
}
