package vcodec

import "github.com/veld-engine/veld/vchain"

// jsonTransaction is a converted [vchain.Transaction]
// that can be safely marshaled as JSON.
type jsonTransaction struct {
	Inputs  []jsonTxInput
	Outputs []jsonTxOutput
}

type jsonTxInput struct {
	PrevTxHash []byte
	Index      uint32
}

type jsonTxOutput struct {
	Value uint64
}

func toJSONTransaction(tx vchain.Transaction) jsonTransaction {
	j := jsonTransaction{
		Inputs:  make([]jsonTxInput, len(tx.Inputs)),
		Outputs: make([]jsonTxOutput, len(tx.Outputs)),
	}
	for i, in := range tx.Inputs {
		j.Inputs[i] = jsonTxInput{PrevTxHash: in.PrevTxHash, Index: in.Index}
	}
	for i, out := range tx.Outputs {
		j.Outputs[i] = jsonTxOutput{Value: out.Value}
	}
	return j
}

func (j jsonTransaction) ToTransaction() vchain.Transaction {
	tx := vchain.Transaction{
		Inputs:  make([]vchain.TxInput, len(j.Inputs)),
		Outputs: make([]vchain.TxOutput, len(j.Outputs)),
	}
	for i, in := range j.Inputs {
		tx.Inputs[i] = vchain.TxInput{PrevTxHash: in.PrevTxHash, Index: in.Index}
	}
	for i, out := range j.Outputs {
		tx.Outputs[i] = vchain.TxOutput{Value: out.Value}
	}
	return tx
}

type jsonSeedCommitment struct {
	Node  uint16
	Epoch uint64
	Hash  []byte
}

func toJSONSeedCommitment(c vchain.SeedCommitment) jsonSeedCommitment {
	return jsonSeedCommitment{Node: uint16(c.Node), Epoch: c.Epoch, Hash: c.Hash}
}

func (j jsonSeedCommitment) ToSeedCommitment() vchain.SeedCommitment {
	return vchain.SeedCommitment{Node: vchain.NodeID(j.Node), Epoch: j.Epoch, Hash: j.Hash}
}

type jsonSeedShare struct {
	From, To uint16
	Epoch    uint64
	EncTo    uint16
	EncData  []byte
}

func toJSONSeedShare(s vchain.SeedShare) jsonSeedShare {
	return jsonSeedShare{
		From:    uint16(s.From),
		To:      uint16(s.To),
		Epoch:   s.Epoch,
		EncTo:   uint16(s.Enc.To),
		EncData: s.Enc.Data,
	}
}

func (j jsonSeedShare) ToSeedShare() vchain.SeedShare {
	return vchain.SeedShare{
		From:  vchain.NodeID(j.From),
		To:    vchain.NodeID(j.To),
		Epoch: j.Epoch,
		Enc: vchain.EncryptedShare{
			To:   vchain.NodeID(j.EncTo),
			Data: j.EncData,
		},
	}
}

type jsonSeedOpening struct {
	Node  uint16
	Epoch uint64
	Seed  uint64
}

func toJSONSeedOpening(o vchain.SeedOpening) jsonSeedOpening {
	return jsonSeedOpening{Node: uint16(o.Node), Epoch: o.Epoch, Seed: o.Seed}
}

func (j jsonSeedOpening) ToSeedOpening() vchain.SeedOpening {
	return vchain.SeedOpening{Node: vchain.NodeID(j.Node), Epoch: j.Epoch, Seed: j.Seed}
}

type jsonLeaderSchedule struct {
	Epoch   uint64
	Leaders []uint16
}

func toJSONLeaderSchedule(s vchain.LeaderSchedule) jsonLeaderSchedule {
	j := jsonLeaderSchedule{
		Epoch:   s.Epoch,
		Leaders: make([]uint16, len(s.Leaders)),
	}
	for i, l := range s.Leaders {
		j.Leaders[i] = uint16(l)
	}
	return j
}

func (j jsonLeaderSchedule) ToLeaderSchedule() vchain.LeaderSchedule {
	s := vchain.LeaderSchedule{
		Epoch:   j.Epoch,
		Leaders: make([]vchain.NodeID, len(j.Leaders)),
	}
	for i, l := range j.Leaders {
		s.Leaders[i] = vchain.NodeID(l)
	}
	return s
}

type jsonDelegationCert struct {
	Issuer, Delegate uint16
	Epoch            uint64
}

func toJSONDelegationCert(c vchain.DelegationCert) jsonDelegationCert {
	return jsonDelegationCert{
		Issuer:   uint16(c.Issuer),
		Delegate: uint16(c.Delegate),
		Epoch:    c.Epoch,
	}
}

func (j jsonDelegationCert) ToDelegationCert() vchain.DelegationCert {
	return vchain.DelegationCert{
		Issuer:   vchain.NodeID(j.Issuer),
		Delegate: vchain.NodeID(j.Delegate),
		Epoch:    j.Epoch,
	}
}
