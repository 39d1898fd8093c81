// Package studio provides the build pipeline and module hosting protocol
// for ownable packages: content-addressed bundles of a compiled WASM
// contract core, its glue bindings, JSON Schemas, and an HTML shell.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	studio/          Root package with the worker wire contract and VM interface
//	├── project/     Project/Folder/File tree model and path resolution
//	├── cid/         Content addressing (CIDv1 over artifact bytes)
//	├── compiler/    Compile collaborator boundary and simulated toolchain
//	├── schema/      JSON Schema documents for the package message shapes
//	├── builder/     Five-step package build pipeline with step/log eventing
//	├── orchestrator/ Build coordination, CID computation, cleanup
//	├── bridge/      Module host bridge: one worker per hosted module
//	├── wasmvm/      wazero-backed VM driven by the bridge worker
//	├── rpcchan/     Named-procedure RPC envelope over a message channel
//	├── store/       SQLite persistence for projects and package blobs
//	├── gateway/     HTTP host surface for the RPC channel and blobs
//	└── errors/      Structured error types shared across the pipeline
//
// # Quick Start
//
// Build a project into a package and host it:
//
//	orc := orchestrator.New(compiler.NewSimulated(), builder.Config{PackageName: "demo", Version: "0.1.0"})
//	res, err := orc.Build(ctx, proj)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.CID)
//
//	br := bridge.New(wasmvm.Factory())
//	err = br.Init(ctx, res.CID, res.Artifact.Get("ownable.js"), res.Artifact.Get("ownable_bg.wasm"))
package studio
