package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ValueMLP is a multi-layered perceptron with a single output head
// that predicts the value of each state in a fixed-size batch of
// states. The network carries its own squared-error training loss so
// that a solver can fit it to regression targets directly.
type ValueMLP struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	targets    *G.Node
	numInputs  int
	batchSize  int
	hiddenSize int

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
	loss       *G.Node
	lossVal    G.Value

	vm G.VM
}

// NewValueMLP creates a value-prediction MLP with a single hidden
// layer of hidden tanh units, taking batches of batch observations of
// features features each. The init parameter determines the weight
// initialization scheme; biases are initialized to zero.
func NewValueMLP(features, hidden, batch int, init G.InitWFn) (*ValueMLP,
	error) {
	if features <= 0 || hidden <= 0 || batch <= 0 {
		return nil, fmt.Errorf("newValueMLP: dimensions must be positive, "+
			"got (%v, %v, %v)", features, hidden, batch)
	}

	g := G.NewGraph()
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))
	targets := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, 1),
		G.WithName("targets"), G.WithInit(G.Zeroes()))

	layers := []Layer{
		&fcLayer{
			weights: G.NewMatrix(g, tensor.Float64,
				G.WithShape(features, hidden), G.WithName("L0Weights"),
				G.WithInit(init)),
			bias: G.NewMatrix(g, tensor.Float64, G.WithShape(1, hidden),
				G.WithName("L0Bias"), G.WithInit(G.Zeroes())),
			act: TanH(),
		},
		&fcLayer{
			weights: G.NewMatrix(g, tensor.Float64, G.WithShape(hidden, 1),
				G.WithName("L1Weights"), G.WithInit(init)),
			bias: G.NewMatrix(g, tensor.Float64, G.WithShape(1, 1),
				G.WithName("L1Bias"), G.WithInit(G.Zeroes())),
			act: Identity(),
		},
	}

	net := &ValueMLP{
		g:          g,
		layers:     layers,
		input:      input,
		targets:    targets,
		numInputs:  features,
		batchSize:  batch,
		hiddenSize: hidden,
	}

	prediction, err := net.fwd(input)
	if err != nil {
		return nil, fmt.Errorf("newValueMLP: could not compute forward "+
			"pass: %v", err)
	}
	net.prediction = prediction
	G.Read(net.prediction, &net.predVal)

	loss := G.Must(G.Sub(prediction, targets))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))
	net.loss = loss
	G.Read(net.loss, &net.lossVal)

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("newValueMLP: could not compute "+
			"gradient: %v", err)
	}
	net.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))

	return net, nil
}

// fwd computes the forward pass over all layers
func (v *ValueMLP) fwd(input *G.Node) (*G.Node, error) {
	out := input
	var err error
	for _, layer := range v.layers {
		if out, err = layer.fwd(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Graph returns the computational graph of the network
func (v *ValueMLP) Graph() *G.ExprGraph { return v.g }

// BatchSize returns the batch size of inputs to the network
func (v *ValueMLP) BatchSize() int { return v.batchSize }

// Features returns the number of features in a single observation
func (v *ValueMLP) Features() int { return v.numInputs }

// Learnables returns the nodes with learnable weights
func (v *ValueMLP) Learnables() G.Nodes {
	if v.learnables == nil {
		for _, layer := range v.layers {
			v.learnables = append(v.learnables, layer.Weights(), layer.Bias())
		}
	}
	return v.learnables
}

// Model returns the learnable nodes with their gradients
func (v *ValueMLP) Model() []G.ValueGrad {
	if v.model == nil {
		for _, learnable := range v.Learnables() {
			v.model = append(v.model, learnable)
		}
	}
	return v.model
}

// SetInput sets the value of the input node before running the
// forward pass
func (v *ValueMLP) SetInput(input []float64) error {
	if len(input) != v.numInputs*v.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs "+
			"\n\twant(%v)\n\thave(%v)", v.numInputs*v.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(v.batchSize, v.numInputs),
	)
	return G.Let(v.input, inputTensor)
}

// SetTargets sets the regression targets for the training loss
func (v *ValueMLP) SetTargets(targets []float64) error {
	if len(targets) != v.batchSize {
		return fmt.Errorf("setTargets: invalid number of targets "+
			"\n\twant(%v)\n\thave(%v)", v.batchSize, len(targets))
	}
	targetTensor := tensor.New(
		tensor.WithBacking(targets),
		tensor.WithShape(v.batchSize, 1),
	)
	return G.Let(v.targets, targetTensor)
}

// Run runs one forward-backward pass over the currently set input and
// targets, leaving gradients bound to the learnables so that a solver
// can step the weights. The batch training loss is returned.
func (v *ValueMLP) Run() (float64, error) {
	if err := v.vm.RunAll(); err != nil {
		return 0.0, fmt.Errorf("run: %v", err)
	}
	loss := v.lossVal.Data().(float64)
	v.vm.Reset()
	return loss, nil
}

// Predict runs the forward pass on a batch of observations and
// returns the predicted state values
func (v *ValueMLP) Predict(input []float64) ([]float64, error) {
	if err := v.SetInput(input); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	if err := v.SetTargets(make([]float64, v.batchSize)); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	if err := v.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	data := v.predVal.Data().([]float64)
	out := make([]float64, len(data))
	copy(out, data)
	v.vm.Reset()
	return out, nil
}
