package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/docker/go-connections/nat"

	"github.com/stackify/cli/internal/docker"
	"github.com/stackify/cli/internal/domain"
	"github.com/stackify/cli/internal/naming"
)

// TemplateData is the context service file templates are rendered with.
type TemplateData struct {
	Environment string
	Service     string
	Version     string
	Peers       []string
	Params      map[string]string
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// provision brings one service container to running. An existing container
// is only started; a new one is created, filled with its rendered files and
// connected to the network before its first start.
func (o *Orchestrator) provision(ctx context.Context, env *domain.Environment, svc domain.EnvironmentService, networkID string, user runUser) (Outcome, error) {
	rctx := detach(ctx)
	name := naming.ServiceContainerName(svc)

	existing, err := o.runtime.ListContainers(rctx, naming.ServiceFilter(env.Name, svc))
	if err != nil {
		return OutcomeFailed, fmt.Errorf("list containers: %w", err)
	}
	switch len(existing) {
	case 0:
	case 1:
		if existing[0].Running() {
			return OutcomeReused, nil
		}
		o.reporter.Step("Starting existing service container", "service", name)
		if err := o.runtime.StartContainer(rctx, existing[0].ID); err != nil {
			return OutcomeFailed, fmt.Errorf("start container %s: %w", name, err)
		}
		return OutcomeReused, nil
	default:
		return OutcomeFailed, &AmbiguousResourceError{Kind: KindContainer, Environment: env.Name.String(), Count: len(existing)}
	}

	peers := env.Peers(svc)
	files, err := o.resolveFiles(ctx, env, svc, peers)
	if err != nil {
		return OutcomeFailed, err
	}
	spec, err := o.containerSpec(env.Name, svc, user)
	if err != nil {
		return OutcomeFailed, err
	}

	o.reporter.Step("Creating service container", "service", name, "type", svc.Type.CLIName(), "version", svc.Version.Version)
	id, err := o.runtime.CreateContainer(rctx, spec)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("create container %s: %w", name, err)
	}

	if len(files) > 0 {
		o.reporter.Step("Copying service files", "service", name, "files", len(files))
		if err := o.runtime.CopyFiles(rctx, id, user.uid, user.gid, files); err != nil {
			return OutcomeFailed, fmt.Errorf("copy files into %s: %w", name, err)
		}
	}

	if networkID != "" {
		if err := o.runtime.ConnectNetwork(rctx, networkID, id, []string{name}); err != nil {
			return OutcomeFailed, fmt.Errorf("connect %s to network: %w", name, err)
		}
	}

	if err := o.runtime.StartContainer(rctx, id); err != nil {
		return OutcomeFailed, fmt.Errorf("start container %s: %w", name, err)
	}
	return OutcomeStarted, nil
}

func (o *Orchestrator) containerSpec(env domain.EnvironmentName, svc domain.EnvironmentService, user runUser) (docker.ContainerSpec, error) {
	ports, err := portMap(svc.Ports)
	if err != nil {
		return docker.ContainerSpec{}, fmt.Errorf("service %s: %w", svc.Name, err)
	}

	spec := docker.ContainerSpec{
		Name:     naming.ServiceContainerName(svc),
		Hostname: svc.Name,
		Image:    o.opts.Image,
		User:     user.String(),
		Cmd:      []string{EntrypointMountPath},
		Env:      serviceEnv(svc),
		Labels:   naming.ServiceLabels(env, svc),
		Ports:    ports,
	}
	if o.opts.BinDir != "" {
		spec.Mounts = append(spec.Mounts, docker.Mount{Source: o.opts.BinDir, Target: BinMountPath, ReadOnly: true})
	}
	if o.opts.AssetsDir != "" {
		spec.Mounts = append(spec.Mounts, docker.Mount{
			Source:   filepath.Join(o.opts.AssetsDir, svc.Type.CLIName(), "entrypoint.sh"),
			Target:   EntrypointMountPath,
			ReadOnly: true,
		})
	}
	return spec, nil
}

func serviceEnv(svc domain.EnvironmentService) []string {
	family := strings.ToUpper(string(svc.Type.Family()))
	env := []string{
		"SERVICE_VERSION=" + svc.Version.Version,
		family + "_VERSION=" + svc.Version.Version,
		family + "_MINER=" + strconv.FormatBool(svc.Type.IsLeader()),
	}
	params := make([]string, 0, len(svc.Params))
	for _, p := range svc.Params {
		params = append(params, "PARAM_"+strings.ToUpper(p.Key)+"="+p.Value)
	}
	sort.Strings(params)
	return append(env, params...)
}

func portMap(ports []domain.PortMapping) (nat.PortMap, error) {
	if len(ports) == 0 {
		return nil, nil
	}
	out := nat.PortMap{}
	for _, p := range ports {
		proto := p.Protocol
		if proto == "" {
			proto = "tcp"
		}
		port, err := nat.NewPort(proto, strconv.Itoa(int(p.ContainerPort)))
		if err != nil {
			return nil, fmt.Errorf("invalid port mapping %s: %w", p, err)
		}
		out[port] = append(out[port], nat.PortBinding{HostPort: strconv.Itoa(int(p.HostPort))})
	}
	return out, nil
}

// resolveFiles merges the service type's default files with the service's
// overrides by name and renders templates.
func (o *Orchestrator) resolveFiles(ctx context.Context, env *domain.Environment, svc domain.EnvironmentService, peers []string) ([]docker.File, error) {
	defaults, err := o.store.ListServiceTypeFiles(ctx, svc.Type)
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", svc.Type.CLIName(), err)
	}
	overrides, err := o.store.ListServiceFileOverrides(ctx, svc.ID)
	if err != nil {
		return nil, fmt.Errorf("list file overrides of %s: %w", svc.Name, err)
	}

	merged := make([]domain.ServiceFile, 0, len(defaults))
	index := map[string]int{}
	for _, f := range defaults {
		index[f.Name] = len(merged)
		merged = append(merged, f)
	}
	for _, f := range overrides {
		if i, ok := index[f.Name]; ok {
			merged[i].Content = f.Content
			continue
		}
		index[f.Name] = len(merged)
		merged = append(merged, f)
	}

	data := TemplateData{
		Environment: env.Name.String(),
		Service:     svc.Name,
		Version:     svc.Version.Version,
		Peers:       peers,
		Params:      map[string]string{},
	}
	if data.Peers == nil {
		data.Peers = []string{}
	}
	for _, p := range svc.Params {
		data.Params[p.Key] = p.Value
	}

	files := make([]docker.File, 0, len(merged))
	for _, f := range merged {
		content := f.Content
		if f.Template {
			content, err = RenderFile(f.Name, f.Content, data)
			if err != nil {
				return nil, fmt.Errorf("service %s: %w", svc.Name, err)
			}
		}
		files = append(files, docker.File{Path: f.Destination, Content: content})
	}
	return files, nil
}

// RenderFile executes content as a text/template against data.
func RenderFile(name string, content []byte, data TemplateData) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
